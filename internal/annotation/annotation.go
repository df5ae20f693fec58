// Package annotation defines markup objects drawn over an image and the
// immutable collections the editor keeps in its history.
package annotation

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/example/markup/internal/geom"
)

// Kind identifies a markup tool. Select is an interaction mode and never
// appears in a committed collection.
type Kind uint8

const (
	Select Kind = iota
	Arrow
	Rectangle
	Ellipse
	Line
	Text
	Highlight
	Freehand
	Blur
)

var kindNames = [...]string{
	Select:    "select",
	Arrow:     "arrow",
	Rectangle: "rectangle",
	Ellipse:   "ellipse",
	Line:      "line",
	Text:      "text",
	Highlight: "highlight",
	Freehand:  "freehand",
	Blur:      "blur",
}

// Kinds lists every kind in toolbar order.
func Kinds() []Kind {
	return []Kind{Select, Arrow, Rectangle, Ellipse, Line, Text, Highlight, Freehand, Blur}
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Drawable reports whether annotations of this kind can be committed.
func (k Kind) Drawable() bool { return k > Select && int(k) < len(kindNames) }

// ParseKind parses a kind name. "rect" and "circle" are accepted as aliases.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "rect":
		return Rectangle, nil
	case "circle", "oval":
		return Ellipse, nil
	case "pen", "draw":
		return Freehand, nil
	case "mask", "redact":
		return Blur, nil
	}
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return Select, fmt.Errorf("unknown annotation kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if int(k) >= len(kindNames) {
		return nil, fmt.Errorf("unknown annotation kind %d", k)
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

const (
	MinStrokeWidth = 1
	MaxStrokeWidth = 20

	DefaultFontSize  = 20.0
	HighlightOpacity = 0.3
)

// NewID returns a fresh annotation id.
var NewID = uuid.NewString

// Annotation is one markup object in image space. Values are treated as
// immutable once committed; edits produce new annotations.
type Annotation struct {
	ID          string       `json:"id" yaml:"id"`
	Kind        Kind         `json:"kind" yaml:"kind"`
	Start       geom.Point   `json:"start" yaml:"start"`
	End         geom.Point   `json:"end" yaml:"end"`
	Color       Color        `json:"color" yaml:"color"`
	StrokeWidth int          `json:"strokeWidth" yaml:"strokeWidth"`
	FillColor   *Color       `json:"fillColor,omitempty" yaml:"fillColor,omitempty"`
	Opacity     float64      `json:"opacity" yaml:"opacity"`
	Text        string       `json:"text,omitempty" yaml:"text,omitempty"`
	FontSize    float64      `json:"fontSize,omitempty" yaml:"fontSize,omitempty"`
	Path        []geom.Point `json:"path,omitempty" yaml:"path,omitempty"`
	ZIndex      int          `json:"zIndex" yaml:"zIndex"`
}

// Style carries the tool settings applied to new annotations.
type Style struct {
	Color       Color
	FillColor   *Color
	StrokeWidth int
	Opacity     float64
	FontSize    float64
}

// DefaultStyle returns red 4px strokes at full opacity.
func DefaultStyle() Style {
	return Style{
		Color:       RGB(255, 0, 0),
		StrokeWidth: 4,
		Opacity:     1,
		FontSize:    DefaultFontSize,
	}
}

// ClampStrokeWidth limits w to the supported range.
func ClampStrokeWidth(w int) int {
	return min(max(w, MinStrokeWidth), MaxStrokeWidth)
}

// ClampOpacity limits o to 0..1.
func ClampOpacity(o float64) float64 {
	if math.IsNaN(o) {
		return 1
	}
	return math.Max(0, math.Min(1, o))
}

// New starts an annotation of kind k at p with a fresh id. The result has
// Start == End and, for freehand, a single path point.
func New(k Kind, p geom.Point, st Style) Annotation {
	a := Annotation{
		ID:          NewID(),
		Kind:        k,
		Start:       p,
		End:         p,
		Color:       st.Color,
		StrokeWidth: ClampStrokeWidth(st.StrokeWidth),
		Opacity:     ClampOpacity(st.Opacity),
	}
	if st.FillColor != nil {
		fill := *st.FillColor
		a.FillColor = &fill
	}
	switch k {
	case Highlight:
		a.Opacity = HighlightOpacity
	case Freehand:
		a.Path = []geom.Point{p}
	case Text:
		a.FontSize = st.FontSize
		if a.FontSize <= 0 {
			a.FontSize = DefaultFontSize
		}
	}
	return a
}

// Extend returns a copy of a updated for a pointer move to p: freehand
// strokes gain a path point, every other kind moves its end point.
func (a Annotation) Extend(p geom.Point) Annotation {
	if a.Kind == Freehand {
		if n := len(a.Path); n > 0 && a.Path[n-1] == p {
			return a
		}
		a.Path = append(slices.Clip(a.Path), p)
	}
	a.End = p
	return a
}

// EffectiveFill returns FillColor, defaulting to Color.
func (a Annotation) EffectiveFill() Color {
	if a.FillColor != nil {
		return *a.FillColor
	}
	return a.Color
}

// EffectiveFontSize returns FontSize, defaulting to DefaultFontSize.
func (a Annotation) EffectiveFontSize() float64 {
	if a.FontSize > 0 {
		return a.FontSize
	}
	return DefaultFontSize
}

// Box returns the normalised rectangle spanned by Start and End.
func (a Annotation) Box() geom.Rect { return geom.Box(a.Start, a.End) }

// Bounds returns the image-space area the annotation touches, padded by the
// stroke width. Text bounds are approximate.
func (a Annotation) Bounds() geom.Rect {
	var r geom.Rect
	switch a.Kind {
	case Freehand:
		r = geom.Bounds(a.Path)
	case Text:
		size := a.EffectiveFontSize()
		w := float64(len([]rune(a.Text))) * size * 0.6
		r = geom.Rect{Min: geom.Pt(a.Start.X, a.Start.Y-size), Max: geom.Pt(a.Start.X+w, a.Start.Y+size*0.3)}
	default:
		r = a.Box()
	}
	pad := float64(a.StrokeWidth)
	if a.Kind == Arrow {
		pad += 15
	}
	return r.Inset(-pad)
}

// SVGPath renders the freehand path in SVG path syntax.
func (a Annotation) SVGPath() string {
	var sb strings.Builder
	for i, p := range a.Path {
		if i == 0 {
			sb.WriteString("M ")
		} else {
			sb.WriteString(" L ")
		}
		sb.WriteString(strconv.FormatFloat(p.X, 'f', -1, 64))
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatFloat(p.Y, 'f', -1, 64))
	}
	return sb.String()
}

// Validate checks the invariants of a committed annotation.
func (a Annotation) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("annotation has no id")
	}
	if !a.Kind.Drawable() {
		return fmt.Errorf("annotation %s: kind %s is not drawable", a.ID, a.Kind)
	}
	if a.StrokeWidth < MinStrokeWidth || a.StrokeWidth > MaxStrokeWidth {
		return fmt.Errorf("annotation %s: stroke width %d outside %d..%d", a.ID, a.StrokeWidth, MinStrokeWidth, MaxStrokeWidth)
	}
	if a.Opacity < 0 || a.Opacity > 1 {
		return fmt.Errorf("annotation %s: opacity %v outside 0..1", a.ID, a.Opacity)
	}
	return nil
}

// Equal reports whether two annotations have identical contents.
func (a Annotation) Equal(b Annotation) bool {
	if (a.FillColor == nil) != (b.FillColor == nil) {
		return false
	}
	if a.FillColor != nil && *a.FillColor != *b.FillColor {
		return false
	}
	return a.ID == b.ID && a.Kind == b.Kind && a.Start == b.Start && a.End == b.End &&
		a.Color == b.Color && a.StrokeWidth == b.StrokeWidth && a.Opacity == b.Opacity &&
		a.Text == b.Text && a.FontSize == b.FontSize && a.ZIndex == b.ZIndex &&
		slices.Equal(a.Path, b.Path)
}
