package ui

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"time"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"golang.org/x/exp/shiny/screen"

	"github.com/example/markup/internal/annotation"
	"github.com/example/markup/internal/editor"
	"github.com/example/markup/internal/geom"
)

// frameState is what one paint needs from the editor, read under the
// session lock.
type frameState struct {
	frame    *image.RGBA
	status   string
	size     geom.Size
	viewport geom.Viewport
	tool     annotation.Kind
	style    annotation.Style
	pending  bool
	anchor   geom.Point
	selected *annotation.Annotation
}

func (w *Window) snapshot() frameState {
	st := frameState{
		frame:  w.sess.Frame(),
		status: w.sess.Status(),
	}
	w.sess.View(func(ed *editor.Editor) {
		st.size = ed.Size()
		st.viewport = ed.Viewport()
		st.tool = ed.Tool()
		st.style = ed.Style()
		st.anchor, st.pending = ed.PendingText()
		if w.selected != "" {
			if a, ok := ed.Annotations().ByID(w.selected); ok {
				st.selected = &a
			}
		}
	})
	return st
}

func (w *Window) paint(s screen.Screen, win screen.Window) error {
	if w.layout.size.X <= 0 || w.layout.size.Y <= 0 {
		return nil
	}
	w.syncViewport()
	st := w.snapshot()
	if st.selected == nil {
		w.selected = ""
	}

	buf, err := s.NewBuffer(w.layout.size)
	if err != nil {
		return fmt.Errorf("new buffer: %w", err)
	}
	defer buf.Release()
	dst := buf.RGBA()

	draw.Draw(dst, dst.Bounds(), &image.Uniform{w.theme.Background}, image.Point{}, draw.Src)
	w.drawCanvas(dst, st)
	w.drawToolbar(dst, st)
	w.drawStatus(dst, st)

	win.Upload(image.Point{}, buf, buf.Bounds())
	win.Publish()
	return nil
}

func (w *Window) drawCanvas(dst *image.RGBA, st frameState) {
	if st.frame == nil || st.size.Empty() {
		return
	}
	canvas := dst.SubImage(w.layout.canvas).(*image.RGBA)
	shown := st.viewport.Bounds.ImageRect().Intersect(w.layout.canvas)
	w.drawBackdrop(canvas, shown)

	t := geom.ViewTransform(st.size, st.viewport)
	xdraw.ApproxBiLinear.Transform(canvas, t.Aff3(), st.frame, st.frame.Bounds(), draw.Over, nil)

	if st.selected != nil {
		strokeRect(canvas, screenBox(t, st.selected.Bounds()), w.theme.TextCaret)
	}
	if st.pending {
		w.drawPendingText(canvas, t, st)
	}
}

// drawBackdrop fills r with a cached checkerboard so transparent pixels
// stay visible.
func (w *Window) drawBackdrop(dst *image.RGBA, r image.Rectangle) {
	b := w.layout.canvas
	if w.backdrop == nil || w.backdrop.Bounds() != b {
		w.backdrop = image.NewRGBA(b)
		drawCheckerboard(w.backdrop, b, 8, w.theme.CheckerLight, w.theme.CheckerDark)
	}
	draw.Draw(dst, r, w.backdrop, r.Min, draw.Src)
}

func drawCheckerboard(dst *image.RGBA, rect image.Rectangle, size int, light, dark color.RGBA) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			c := dark
			if ((x/size)+(y/size))%2 == 0 {
				c = light
			}
			dst.SetRGBA(x, y, c)
		}
	}
}

// screenBox maps an image-space rectangle to the screen rectangle that
// covers it under t.
func screenBox(t geom.Transform, r geom.Rect) image.Rectangle {
	corners := []geom.Point{
		t.Apply(r.Min),
		t.Apply(geom.Pt(r.Max.X, r.Min.Y)),
		t.Apply(r.Max),
		t.Apply(geom.Pt(r.Min.X, r.Max.Y)),
	}
	return geom.Bounds(corners).ImageRect()
}

func strokeRect(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	u := &image.Uniform{c}
	for _, edge := range []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1),
		image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y),
		image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y),
	} {
		draw.Draw(dst, edge.Intersect(dst.Bounds()), u, image.Point{}, draw.Over)
	}
}

var (
	textFontOnce sync.Once
	textFont     *opentype.Font
	textFontErr  error
	textFaces    = map[int]font.Face{}
)

// previewFace returns a goregular face at px pixels.
func previewFace(px int) (font.Face, error) {
	textFontOnce.Do(func() {
		textFont, textFontErr = opentype.Parse(goregular.TTF)
	})
	if textFontErr != nil {
		return nil, textFontErr
	}
	px = max(px, 6)
	if f, ok := textFaces[px]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(textFont, &opentype.FaceOptions{Size: float64(px), DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, err
	}
	textFaces[px] = f
	return f, nil
}

// drawPendingText previews the text being typed at the anchor with a
// caret after it. Rotated views preview unrotated.
func (w *Window) drawPendingText(dst *image.RGBA, t geom.Transform, st frameState) {
	at := t.Apply(st.anchor).Round()
	scale := st.viewport.Bounds.Dx() / st.size.W
	if st.viewport.Turns()%2 == 1 {
		scale = st.viewport.Bounds.Dx() / st.size.H
	}
	size := st.style.FontSize
	if size <= 0 {
		size = annotation.DefaultFontSize
	}
	face, err := previewFace(int(size*scale + 0.5))
	if err != nil {
		w.logger.Warn("text preview font", "err", err)
		return
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(st.style.Color.NRGBA()),
		Face: face,
		Dot:  fixed.P(at.X, at.Y),
	}
	d.DrawString(w.text)
	m := face.Metrics()
	x := d.Dot.X.Ceil() + 1
	caret := image.Rect(x, at.Y-m.Ascent.Ceil(), x+2, at.Y+m.Descent.Ceil())
	draw.Draw(dst, caret.Intersect(dst.Bounds()), &image.Uniform{w.theme.TextCaret}, image.Point{}, draw.Src)
}

func (w *Window) drawToolbar(dst *image.RGBA, st frameState) {
	th := w.theme
	draw.Draw(dst, w.layout.toolbar, &image.Uniform{th.ToolbarBackground}, image.Point{}, draw.Src)
	for i, c := range w.layout.controls {
		switch c.kind {
		case hitTool, hitWidth:
			bg := th.ButtonBackground
			switch {
			case c.kind == hitTool && c.tool == st.tool:
				bg = th.ButtonActive
			case i == w.hover:
				bg = th.ButtonBackgroundHover
			}
			r := c.rect.Inset(1)
			draw.Draw(dst, r, &image.Uniform{bg}, image.Point{}, draw.Src)
			d := &font.Drawer{Dst: dst, Src: &image.Uniform{th.ButtonText}, Face: basicfont.Face7x13,
				Dot: fixed.P(r.Min.X+padding, r.Min.Y+16)}
			if c.kind == hitWidth {
				d.Dot.X = fixed.I(r.Min.X + (r.Dx()-d.MeasureString(c.label).Ceil())/2)
			}
			d.DrawString(c.label)
		case hitColor:
			draw.Draw(dst, c.rect, &image.Uniform{c.color}, image.Point{}, draw.Src)
			border := th.ButtonBorder
			if annotation.FromColor(c.color) == st.style.Color {
				border = th.ButtonActive
				strokeRect(dst, c.rect.Inset(-1), border)
			}
			strokeRect(dst, c.rect, border)
		}
	}
}

func (w *Window) drawStatus(dst *image.RGBA, st frameState) {
	th := w.theme
	r := w.layout.status
	draw.Draw(dst, r, &image.Uniform{th.StatusBackground}, image.Point{}, draw.Src)

	text, col := st.status, th.StatusText
	if !st.size.Empty() {
		scale := w.view.scale(st.size, w.layout.canvas)
		text += fmt.Sprintf(" | width %d | zoom %.0f%%", st.style.StrokeWidth, scale*100)
		if q := st.viewport.Turns(); q != 0 {
			text += fmt.Sprintf(" | rotated %d deg", q*90)
		}
	}
	if w.message != "" && time.Now().Before(w.messageUntil) {
		text, col = w.message, th.ErrorText
	}
	if st.pending {
		text = "typing: Enter to place, Esc to cancel"
	}
	d := &font.Drawer{Dst: dst, Src: &image.Uniform{col}, Face: basicfont.Face7x13,
		Dot: fixed.P(r.Min.X+padding, r.Min.Y+16)}
	d.DrawString(text)
}
