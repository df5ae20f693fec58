package ui

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/colornames"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/example/markup/internal/annotation"
	"github.com/example/markup/internal/geom"
)

const (
	statusHeight = 24
	buttonHeight = 24
	swatchSize   = 16
	padding      = 4

	minZoom  = 0.05
	maxZoom  = 16
	zoomStep = 1.25
)

// toolbarWidth grows at start up to fit the widest tool label.
var toolbarWidth = 64

// palette is offered as swatches below the tool buttons.
var palette = []color.RGBA{
	colornames.Red,
	colornames.Orange,
	colornames.Yellow,
	colornames.Limegreen,
	colornames.Dodgerblue,
	colornames.Purple,
	colornames.Black,
	colornames.White,
}

// toolKeys maps a lower-case rune to the tool it selects.
var toolKeys = map[rune]annotation.Kind{
	's': annotation.Select,
	'a': annotation.Arrow,
	'r': annotation.Rectangle,
	'e': annotation.Ellipse,
	'l': annotation.Line,
	't': annotation.Text,
	'h': annotation.Highlight,
	'f': annotation.Freehand,
	'b': annotation.Blur,
}

func toolKey(k annotation.Kind) rune {
	for r, kind := range toolKeys {
		if kind == k {
			return r
		}
	}
	return 0
}

func toolLabel(k annotation.Kind) string {
	r := toolKey(k)
	if r == 0 {
		return k.String()
	}
	return string(r-'a'+'A') + ":" + k.String()
}

func init() {
	d := &font.Drawer{Face: basicfont.Face7x13}
	for _, k := range annotation.Kinds() {
		if w := d.MeasureString(toolLabel(k)).Ceil() + 2*padding; w > toolbarWidth {
			toolbarWidth = w
		}
	}
}

type hitKind int

const (
	hitNone hitKind = iota
	hitTool
	hitColor
	hitWidth
)

// control is something clickable in the toolbar.
type control struct {
	kind  hitKind
	rect  image.Rectangle
	label string
	tool  annotation.Kind
	color color.RGBA
	delta int
}

// layout splits the window into the toolbar on the left, the status line
// at the bottom and the canvas filling the rest.
type layout struct {
	size     image.Point
	toolbar  image.Rectangle
	canvas   image.Rectangle
	status   image.Rectangle
	controls []control
}

func newLayout(width, height int) layout {
	width, height = max(width, 0), max(height, 0)
	l := layout{
		size:    image.Pt(width, height),
		toolbar: image.Rect(0, 0, min(toolbarWidth, width), max(height-statusHeight, 0)),
		status:  image.Rect(0, max(height-statusHeight, 0), width, height),
	}
	l.canvas = image.Rect(l.toolbar.Max.X, 0, width, l.toolbar.Max.Y)

	y := 0
	for _, k := range annotation.Kinds() {
		l.controls = append(l.controls, control{
			kind:  hitTool,
			rect:  image.Rect(0, y, toolbarWidth, y+buttonHeight),
			label: toolLabel(k),
			tool:  k,
		})
		y += buttonHeight
	}

	y += padding
	x := padding
	for _, c := range palette {
		if x+swatchSize > toolbarWidth {
			x = padding
			y += swatchSize + 2
		}
		l.controls = append(l.controls, control{
			kind:  hitColor,
			rect:  image.Rect(x, y, x+swatchSize, y+swatchSize),
			color: c,
		})
		x += swatchSize + 2
	}
	y += swatchSize + padding

	half := toolbarWidth / 2
	l.controls = append(l.controls,
		control{kind: hitWidth, rect: image.Rect(0, y, half, y+buttonHeight), label: "-", delta: -1},
		control{kind: hitWidth, rect: image.Rect(half, y, toolbarWidth, y+buttonHeight), label: "+", delta: 1},
	)
	return l
}

// hit returns the index of the control under p, or -1.
func (l layout) hit(p image.Point) int {
	if !p.In(l.toolbar) {
		return -1
	}
	for i, c := range l.controls {
		if p.In(c.rect) {
			return i
		}
	}
	return -1
}

// view is the user's zoom and rotation. A zero zoom fits the image to the
// canvas.
type view struct {
	zoom    float64
	quarter int
}

// fitZoom returns the largest scale at which a w x h image fits avail.
func fitZoom(w, h float64, avail image.Rectangle) float64 {
	if w <= 0 || h <= 0 || avail.Empty() {
		return 1
	}
	zx := float64(avail.Dx()) / w
	zy := float64(avail.Dy()) / h
	return math.Min(zx, zy)
}

// displaySize is the native size after rotation.
func (v view) displaySize(native geom.Size) (float64, float64) {
	if ((v.quarter%4)+4)%2 == 1 {
		return native.H, native.W
	}
	return native.W, native.H
}

// scale returns the zoom factor in effect for native shown on canvas.
func (v view) scale(native geom.Size, canvas image.Rectangle) float64 {
	if v.zoom > 0 {
		return v.zoom
	}
	w, h := v.displaySize(native)
	return fitZoom(w, h, canvas)
}

// viewport centres the scaled and rotated image inside canvas.
func (v view) viewport(native geom.Size, canvas image.Rectangle) geom.Viewport {
	if native.Empty() || canvas.Empty() {
		return geom.Viewport{}
	}
	s := v.scale(native, canvas)
	w, h := v.displaySize(native)
	w, h = w*s, h*s
	c := geom.FromImageRect(canvas).Center()
	return geom.Viewport{
		Bounds:  geom.RectXYWH(c.X-w/2, c.Y-h/2, w, h),
		Quarter: ((v.quarter % 4) + 4) % 4,
	}
}

// zoomBy multiplies the effective zoom by f, leaving fit mode.
func (v view) zoomBy(f float64, native geom.Size, canvas image.Rectangle) view {
	z := v.scale(native, canvas) * f
	v.zoom = math.Max(minZoom, math.Min(maxZoom, z))
	return v
}

func (v view) rotate(turns int) view {
	v.quarter = (((v.quarter + turns) % 4) + 4) % 4
	return v
}

// pick returns the id of the topmost annotation whose bounds contain p.
func pick(items []annotation.Annotation, p geom.Point) (string, bool) {
	id, z, found := "", 0, false
	for _, a := range items {
		if !a.Bounds().Contains(p) {
			continue
		}
		if !found || a.ZIndex >= z {
			id, z, found = a.ID, a.ZIndex, true
		}
	}
	return id, found
}
