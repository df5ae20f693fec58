package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/example/markup/internal/geom"
)

// Raster draws with integer primitives: square-brush Bresenham lines and a
// parametric ellipse. Strokes are stamped into an alpha mask first and then
// composited over the destination in one pass.
type Raster struct{}

func (Raster) Name() string { return "raster" }

func (Raster) NewPainter(dst *image.RGBA) Painter {
	return &rasterPainter{dst: dst, faces: newFaceCache()}
}

type rasterPainter struct {
	dst   *image.RGBA
	faces *faceCache
}

func (p *rasterPainter) StrokePaths(paths [][]geom.Point, c color.NRGBA, width int) {
	var all []geom.Point
	for _, path := range paths {
		all = append(all, path...)
	}
	mask := p.maskFor(geom.Bounds(all), width)
	if mask == nil {
		return
	}
	for _, path := range paths {
		if len(path) == 1 {
			q := path[0].Round()
			stamp(mask, q.X, q.Y, width)
			continue
		}
		for i := 1; i < len(path); i++ {
			a, b := path[i-1].Round(), path[i].Round()
			maskLine(mask, a.X, a.Y, b.X, b.Y, width)
		}
	}
	p.composite(mask, c)
}

func (p *rasterPainter) StrokeEllipse(box geom.Rect, c color.NRGBA, width int) {
	mask := p.maskFor(box, width)
	if mask == nil {
		return
	}
	center := box.Center().Round()
	maskEllipse(mask, center.X, center.Y, int(math.Round(box.Dx()/2)), int(math.Round(box.Dy()/2)), width)
	p.composite(mask, c)
}

func (p *rasterPainter) FillRect(r geom.Rect, c color.NRGBA) {
	area := r.ImageRect().Intersect(p.dst.Bounds())
	if area.Empty() {
		return
	}
	draw.Draw(p.dst, area, image.NewUniform(c), image.Point{}, draw.Over)
}

func (p *rasterPainter) Text(baseline geom.Point, s string, size float64, c color.NRGBA) error {
	face, err := p.faces.face(size)
	if err != nil {
		return err
	}
	d := &font.Drawer{
		Dst:  p.dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(math.Round(baseline.X * 64)),
			Y: fixed.Int26_6(math.Round(baseline.Y * 64)),
		},
	}
	d.DrawString(s)
	return nil
}

func (p *rasterPainter) Flush() error { return nil }

// maskFor allocates a mask covering r padded by the brush, clipped to the
// destination. It returns nil when nothing would be visible.
func (p *rasterPainter) maskFor(r geom.Rect, width int) *image.Alpha {
	area := r.Inset(-float64(width) - 1).ImageRect().Intersect(p.dst.Bounds())
	if area.Empty() {
		return nil
	}
	return image.NewAlpha(area)
}

func (p *rasterPainter) composite(mask *image.Alpha, c color.NRGBA) {
	b := mask.Bounds()
	draw.DrawMask(p.dst, b, image.NewUniform(c), image.Point{}, mask, b.Min, draw.Over)
}

// stamp marks a thick x thick square centred on (x, y).
func stamp(mask *image.Alpha, x, y, thick int) {
	r := thick / 2
	b := mask.Bounds()
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			q := image.Pt(x+dx, y+dy)
			if q.In(b) {
				mask.SetAlpha(q.X, q.Y, color.Alpha{A: 0xff})
			}
		}
	}
}

func maskLine(mask *image.Alpha, x0, y0, x1, y1, thick int) {
	dx := abs(x1 - x0)
	dy := abs(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		stamp(mask, x0, y0, thick)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func maskEllipse(mask *image.Alpha, cx, cy, rx, ry, thick int) {
	steps := max(int(math.Ceil(2*math.Pi*math.Sqrt(float64(rx*rx+ry*ry)))), 8)
	var px, py int
	for i := 0; i <= steps; i++ {
		angle := 2 * math.Pi * float64(i) / float64(steps)
		x := cx + int(math.Round(math.Cos(angle)*float64(rx)))
		y := cy + int(math.Round(math.Sin(angle)*float64(ry)))
		if i == 0 {
			stamp(mask, x, y, thick)
		} else {
			maskLine(mask, px, py, x, y, thick)
		}
		px, py = x, y
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
