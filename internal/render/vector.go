package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/example/markup/internal/geom"
)

var (
	vectorFontOnce sync.Once
	vectorFont     *text.FontSource
	vectorFontErr  error
)

func vectorFontSource() (*text.FontSource, error) {
	vectorFontOnce.Do(func() {
		vectorFont, vectorFontErr = text.NewFontSource(goregular.TTF)
		if vectorFontErr != nil {
			vectorFontErr = fmt.Errorf("load goregular: %w", vectorFontErr)
		}
	})
	return vectorFont, vectorFontErr
}

// Vector draws anti-aliased strokes and text with the gg software
// rasterizer. The destination is copied into a gg context and written back
// on Flush.
type Vector struct{}

func (Vector) Name() string { return "vector" }

func (Vector) NewPainter(dst *image.RGBA) Painter {
	return &vectorPainter{dst: dst, dc: gg.NewContextForImage(dst)}
}

type vectorPainter struct {
	dst  *image.RGBA
	dc   *gg.Context
	errs []error
}

func (p *vectorPainter) stroke(c color.NRGBA, width int) {
	p.dc.SetColor(c)
	p.dc.SetLineWidth(float64(width))
	p.dc.SetLineCap(gg.LineCapRound)
	p.dc.SetLineJoin(gg.LineJoinRound)
	if err := p.dc.Stroke(); err != nil {
		p.errs = append(p.errs, err)
	}
}

func (p *vectorPainter) StrokePaths(paths [][]geom.Point, c color.NRGBA, width int) {
	var dots []geom.Point
	for _, path := range paths {
		if len(path) == 1 {
			dots = append(dots, path[0])
			continue
		}
		for i, pt := range path {
			if i == 0 {
				p.dc.MoveTo(pt.X, pt.Y)
			} else {
				p.dc.LineTo(pt.X, pt.Y)
			}
		}
	}
	p.stroke(c, width)
	for _, d := range dots {
		p.dc.DrawPoint(d.X, d.Y, float64(width)/2)
		p.fill(c)
	}
}

func (p *vectorPainter) StrokeEllipse(box geom.Rect, c color.NRGBA, width int) {
	center := box.Center()
	p.dc.DrawEllipse(center.X, center.Y, box.Dx()/2, box.Dy()/2)
	p.stroke(c, width)
}

func (p *vectorPainter) FillRect(r geom.Rect, c color.NRGBA) {
	if r.Empty() {
		return
	}
	p.dc.DrawRectangle(r.Min.X, r.Min.Y, r.Dx(), r.Dy())
	p.fill(c)
}

func (p *vectorPainter) fill(c color.NRGBA) {
	p.dc.SetColor(c)
	if err := p.dc.Fill(); err != nil {
		p.errs = append(p.errs, err)
	}
}

func (p *vectorPainter) Text(baseline geom.Point, s string, size float64, c color.NRGBA) error {
	src, err := vectorFontSource()
	if err != nil {
		return err
	}
	p.dc.SetFont(src.Face(size))
	p.dc.SetColor(c)
	p.dc.DrawString(s, baseline.X, baseline.Y)
	return nil
}

func (p *vectorPainter) Flush() error {
	draw.Draw(p.dst, p.dst.Bounds(), p.dc.Image(), image.Point{}, draw.Src)
	p.errs = append(p.errs, p.dc.Close())
	return errors.Join(p.errs...)
}
