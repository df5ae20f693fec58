// Package render flattens annotations onto a copy of a source image.
//
// Rendering is pure: the same source, annotations and in-progress
// annotation always produce the same pixels, and the source is never
// written to. Each call allocates a fresh surface at the source's size.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/example/markup/internal/annotation"
	"github.com/example/markup/internal/geom"
)

const (
	// ArrowHeadLength is the length of each arrowhead segment in pixels.
	ArrowHeadLength = 15.0
	// ArrowHeadAngle is the angle between the shaft and each head segment.
	ArrowHeadAngle = math.Pi / 6
)

// BlurColor is the redaction overlay painted for blur annotations.
var BlurColor = color.NRGBA{R: 128, G: 128, B: 128, A: 192}

// Backend creates a Painter for a destination surface.
type Backend interface {
	Name() string
	NewPainter(dst *image.RGBA) Painter
}

// Painter draws primitives in image space. Colours already carry the
// annotation's opacity. Each call composites once, so overlapping segments
// of a single stroke do not darken translucent colours.
type Painter interface {
	StrokePaths(paths [][]geom.Point, c color.NRGBA, width int)
	StrokeEllipse(box geom.Rect, c color.NRGBA, width int)
	FillRect(r geom.Rect, c color.NRGBA)
	Text(baseline geom.Point, s string, size float64, c color.NRGBA) error
	Flush() error
}

// BackendByName returns the backend called name ("raster" or "vector").
func BackendByName(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "raster":
		return Raster{}, nil
	case "vector", "gg":
		return Vector{}, nil
	}
	return nil, fmt.Errorf("unknown render backend %q", name)
}

// Renderer composes a source image with annotations.
type Renderer struct {
	backend Backend
	logger  *slog.Logger
}

// New returns a Renderer. A nil backend selects Raster; a nil logger
// discards diagnostics.
func New(b Backend, logger *slog.Logger) *Renderer {
	if b == nil {
		b = Raster{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Renderer{backend: b, logger: logger}
}

// Backend returns the renderer's backend.
func (r *Renderer) Backend() Backend { return r.backend }

// Render draws src, then anns in ascending ZIndex order, then inProgress on
// top. The result always has a zero origin.
func (r *Renderer) Render(src image.Image, anns []annotation.Annotation, inProgress *annotation.Annotation) *image.RGBA {
	if src == nil {
		return image.NewRGBA(image.Rectangle{})
	}
	sb := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, sb.Dx(), sb.Dy()))
	draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Src)

	ordered := slices.Clone(anns)
	slices.SortStableFunc(ordered, func(a, b annotation.Annotation) int { return a.ZIndex - b.ZIndex })

	p := r.backend.NewPainter(dst)
	for _, a := range ordered {
		r.paint(p, a)
	}
	if inProgress != nil {
		r.paint(p, *inProgress)
	}
	if err := p.Flush(); err != nil {
		r.logger.Warn("render flush failed", "backend", r.backend.Name(), "err", err)
	}
	return dst
}

func (r *Renderer) paint(p Painter, a annotation.Annotation) {
	stroke := a.Color.WithOpacity(a.Opacity).NRGBA()
	width := annotation.ClampStrokeWidth(a.StrokeWidth)
	switch a.Kind {
	case annotation.Arrow:
		left, right := ArrowHead(a.Start, a.End)
		p.StrokePaths([][]geom.Point{{a.Start, a.End}, {left, a.End, right}}, stroke, width)
	case annotation.Rectangle:
		p.StrokePaths([][]geom.Point{boxOutline(a.Box())}, stroke, width)
	case annotation.Ellipse:
		p.StrokeEllipse(a.Box(), stroke, width)
	case annotation.Line:
		p.StrokePaths([][]geom.Point{{a.Start, a.End}}, stroke, width)
	case annotation.Highlight:
		p.FillRect(a.Box(), a.EffectiveFill().WithOpacity(annotation.HighlightOpacity).NRGBA())
	case annotation.Text:
		if a.Text == "" {
			return
		}
		if err := p.Text(a.Start, a.Text, a.EffectiveFontSize(), stroke); err != nil {
			r.logger.Warn("draw text failed", "id", a.ID, "err", err)
		}
	case annotation.Freehand:
		if len(a.Path) == 0 {
			return
		}
		p.StrokePaths([][]geom.Point{a.Path}, stroke, width)
	case annotation.Blur:
		p.FillRect(a.Box(), BlurColor)
	default:
		r.logger.Debug("skipping non-drawable annotation", "id", a.ID, "kind", a.Kind)
	}
}

// ArrowHead returns the far ends of the two head segments of an arrow from
// start to end. Each segment is ArrowHeadLength long and leaves end at
// ArrowHeadAngle either side of the reversed shaft.
func ArrowHead(start, end geom.Point) (left, right geom.Point) {
	theta := math.Atan2(end.Y-start.Y, end.X-start.X)
	left = geom.Point{
		X: end.X - ArrowHeadLength*math.Cos(theta-ArrowHeadAngle),
		Y: end.Y - ArrowHeadLength*math.Sin(theta-ArrowHeadAngle),
	}
	right = geom.Point{
		X: end.X - ArrowHeadLength*math.Cos(theta+ArrowHeadAngle),
		Y: end.Y - ArrowHeadLength*math.Sin(theta+ArrowHeadAngle),
	}
	return left, right
}

func boxOutline(b geom.Rect) []geom.Point {
	return []geom.Point{
		b.Min,
		{X: b.Max.X, Y: b.Min.Y},
		b.Max,
		{X: b.Min.X, Y: b.Max.Y},
		b.Min,
	}
}
