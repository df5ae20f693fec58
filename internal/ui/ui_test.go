package ui

import (
	"image"
	"math"
	"testing"

	"golang.org/x/mobile/event/key"

	"github.com/example/markup/internal/annotation"
	"github.com/example/markup/internal/geom"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestLayoutRegions(t *testing.T) {
	l := newLayout(800, 600)
	if l.status != image.Rect(0, 600-statusHeight, 800, 600) {
		t.Fatalf("status %v", l.status)
	}
	if l.canvas.Min.X != toolbarWidth || l.canvas.Max.Y != 600-statusHeight || l.canvas.Max.X != 800 {
		t.Fatalf("canvas %v", l.canvas)
	}
	tools := 0
	for _, c := range l.controls {
		if c.kind == hitTool {
			tools++
		}
		if !c.rect.In(image.Rect(0, 0, toolbarWidth, 600)) {
			t.Fatalf("control %q outside toolbar: %v", c.label, c.rect)
		}
	}
	if tools != len(annotation.Kinds()) {
		t.Fatalf("expected a button per tool, got %d", tools)
	}
}

func TestLayoutHit(t *testing.T) {
	l := newLayout(800, 600)
	i := l.hit(image.Pt(2, buttonHeight+2))
	if i < 0 || l.controls[i].kind != hitTool || l.controls[i].tool != annotation.Kinds()[1] {
		t.Fatalf("hit %d", i)
	}
	if got := l.hit(image.Pt(400, 300)); got != -1 {
		t.Fatalf("canvas point hit control %d", got)
	}
	var sawColor, sawWidth bool
	for _, c := range l.controls {
		j := l.hit(c.rect.Min)
		if j < 0 || l.controls[j].kind != c.kind {
			t.Fatalf("control at %v not hit", c.rect.Min)
		}
		sawColor = sawColor || c.kind == hitColor
		sawWidth = sawWidth || c.kind == hitWidth
	}
	if !sawColor || !sawWidth {
		t.Fatalf("missing palette or width controls")
	}
}

func TestToolLabels(t *testing.T) {
	if got := toolLabel(annotation.Rectangle); got != "R:rectangle" {
		t.Fatalf("label %q", got)
	}
	for _, k := range annotation.Kinds() {
		if toolKey(k) == 0 {
			t.Fatalf("no shortcut for %v", k)
		}
	}
}

func TestFitZoom(t *testing.T) {
	avail := image.Rect(0, 0, 400, 300)
	cases := []struct {
		w, h float64
		want float64
	}{
		{800, 600, 0.5},
		{200, 300, 1},
		{100, 50, 4},
		{0, 10, 1},
	}
	for _, c := range cases {
		if got := fitZoom(c.w, c.h, avail); !near(got, c.want) {
			t.Fatalf("fitZoom(%v,%v)=%v want %v", c.w, c.h, got, c.want)
		}
	}
}

func TestViewportCentresFittedImage(t *testing.T) {
	canvas := image.Rect(100, 0, 500, 300)
	native := geom.Size{W: 800, H: 300}
	vp := view{}.viewport(native, canvas)
	want := geom.RectXYWH(100, 75, 400, 150)
	if vp.Bounds != want || vp.Quarter != 0 {
		t.Fatalf("viewport %+v want %+v", vp, want)
	}
	if got := vp.Map(geom.Pt(100, 75), native); !near(got.X, 0) || !near(got.Y, 0) {
		t.Fatalf("top-left maps to %v", got)
	}
	if got := vp.Map(geom.Pt(500, 225), native); !near(got.X, 800) || !near(got.Y, 300) {
		t.Fatalf("bottom-right maps to %v", got)
	}
}

func TestViewportRotated(t *testing.T) {
	canvas := image.Rect(0, 0, 400, 400)
	native := geom.Size{W: 200, H: 100}
	v := view{zoom: 1}.rotate(1)
	vp := v.viewport(native, canvas)
	if vp.Quarter != 1 || !near(vp.Bounds.Dx(), 100) || !near(vp.Bounds.Dy(), 200) {
		t.Fatalf("viewport %+v", vp)
	}
	// Clockwise: the image's top-left lands at the top-right of the box.
	got := geom.ViewTransform(native, vp).Apply(geom.Pt(0, 0))
	if !near(got.X, vp.Bounds.Max.X) || !near(got.Y, vp.Bounds.Min.Y) {
		t.Fatalf("origin shown at %v, bounds %+v", got, vp.Bounds)
	}
	back := vp.Map(got, native)
	if !near(back.X, 0) || !near(back.Y, 0) {
		t.Fatalf("round trip %v", back)
	}
}

func TestViewportEmpty(t *testing.T) {
	if vp := (view{}).viewport(geom.Size{}, image.Rect(0, 0, 10, 10)); vp != (geom.Viewport{}) {
		t.Fatalf("empty image gave %+v", vp)
	}
	if vp := (view{}).viewport(geom.Size{W: 10, H: 10}, image.Rectangle{}); vp != (geom.Viewport{}) {
		t.Fatalf("empty canvas gave %+v", vp)
	}
}

func TestZoomAndRotate(t *testing.T) {
	canvas := image.Rect(0, 0, 400, 300)
	native := geom.Size{W: 800, H: 600}
	v := view{}.zoomBy(2, native, canvas)
	if !near(v.zoom, 1) {
		t.Fatalf("zoom from fit: %v", v.zoom)
	}
	for range 40 {
		v = v.zoomBy(zoomStep, native, canvas)
	}
	if v.zoom != maxZoom {
		t.Fatalf("zoom not clamped: %v", v.zoom)
	}
	for range 80 {
		v = v.zoomBy(1/zoomStep, native, canvas)
	}
	if v.zoom != minZoom {
		t.Fatalf("zoom not clamped: %v", v.zoom)
	}
	if got := (view{}).rotate(-1).quarter; got != 3 {
		t.Fatalf("rotate -1 = %d", got)
	}
	if got := (view{quarter: 3}).rotate(2).quarter; got != 1 {
		t.Fatalf("rotate wrap = %d", got)
	}
}

func TestPickTopmost(t *testing.T) {
	st := annotation.DefaultStyle()
	st.StrokeWidth = 1
	low := annotation.New(annotation.Rectangle, geom.Pt(0, 0), st).Extend(geom.Pt(100, 100))
	low.ZIndex = 1
	high := annotation.New(annotation.Rectangle, geom.Pt(50, 50), st).Extend(geom.Pt(150, 150))
	high.ZIndex = 2
	items := []annotation.Annotation{high, low}

	if id, ok := pick(items, geom.Pt(75, 75)); !ok || id != high.ID {
		t.Fatalf("overlap picked %q", id)
	}
	if id, ok := pick(items, geom.Pt(10, 10)); !ok || id != low.ID {
		t.Fatalf("low picked %q", id)
	}
	if _, ok := pick(items, geom.Pt(300, 300)); ok {
		t.Fatalf("empty area picked something")
	}
}

func TestCommandFor(t *testing.T) {
	cases := []struct {
		name string
		ev   key.Event
		want command
		tool annotation.Kind
	}{
		{"undo", key.Event{Code: key.CodeZ, Modifiers: key.ModControl}, cmdUndo, 0},
		{"redo shift", key.Event{Code: key.CodeZ, Modifiers: key.ModControl | key.ModShift}, cmdRedo, 0},
		{"redo y", key.Event{Code: key.CodeY, Modifiers: key.ModControl}, cmdRedo, 0},
		{"save", key.Event{Code: key.CodeS, Modifiers: key.ModControl}, cmdSave, 0},
		{"quit", key.Event{Code: key.CodeQ, Modifiers: key.ModControl}, cmdQuit, 0},
		{"clear", key.Event{Code: key.CodeDeleteForward, Modifiers: key.ModControl}, cmdClear, 0},
		{"delete", key.Event{Code: key.CodeDeleteBackspace}, cmdDelete, 0},
		{"escape", key.Event{Code: key.CodeEscape}, cmdDeselect, 0},
		{"zoom in", key.Event{Rune: '+'}, cmdZoomIn, 0},
		{"zoom out", key.Event{Rune: '-'}, cmdZoomOut, 0},
		{"fit", key.Event{Rune: '0'}, cmdZoomFit, 0},
		{"rotate", key.Event{Rune: ']'}, cmdRotateRight, 0},
		{"width", key.Event{Rune: ','}, cmdWidthDown, 0},
		{"tool", key.Event{Rune: 'E'}, cmdTool, annotation.Ellipse},
		{"select", key.Event{Rune: 's'}, cmdTool, annotation.Select},
		{"ctrl letter is not a tool", key.Event{Rune: 'a', Code: key.CodeA, Modifiers: key.ModControl}, cmdNone, 0},
		{"unbound", key.Event{Rune: 'z'}, cmdNone, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, tool := commandFor(c.ev)
			if got != c.want || tool != c.tool {
				t.Fatalf("got %v/%v want %v/%v", got, tool, c.want, c.tool)
			}
		})
	}
}

func TestEditText(t *testing.T) {
	s, done, cancel := editText("", key.Event{Rune: 'h'})
	s, _, _ = editText(s, key.Event{Rune: 'é'})
	if s != "hé" || done || cancel {
		t.Fatalf("typed %q", s)
	}
	s, _, _ = editText(s, key.Event{Code: key.CodeDeleteBackspace})
	if s != "h" {
		t.Fatalf("backspace left %q", s)
	}
	if s, _, _ = editText(s, key.Event{Rune: '\t', Code: key.CodeTab}); s != "h" {
		t.Fatalf("tab inserted: %q", s)
	}
	if _, done, _ = editText(s, key.Event{Code: key.CodeReturnEnter}); !done {
		t.Fatalf("enter did not finish")
	}
	if _, _, cancel = editText(s, key.Event{Code: key.CodeEscape}); !cancel {
		t.Fatalf("escape did not cancel")
	}
	if s, _, _ = editText("", key.Event{Code: key.CodeDeleteBackspace}); s != "" {
		t.Fatalf("backspace on empty: %q", s)
	}
}

func TestSavedMessage(t *testing.T) {
	if got := savedMessage([]string{"a.png", "b.png"}, true); got != "saved to a.png (+1), copied to clipboard" {
		t.Fatalf("message %q", got)
	}
	if got := savedMessage(nil, false); got != "saved" {
		t.Fatalf("message %q", got)
	}
}
