// Package ui runs the interactive editor window. The shiny event loop owns
// all window state; the session is the only state shared with the load and
// save goroutines.
package ui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/markup/internal/annotation"
	"github.com/example/markup/internal/editor"
	"github.com/example/markup/internal/geom"
	"github.com/example/markup/internal/session"
	"github.com/example/markup/internal/theme"
)

const messageTimeout = 3 * time.Second

// Options configures a Window.
type Options struct {
	Session *session.Session
	// Source is loaded into the session when the window opens. Leave it
	// empty when the session is already loaded.
	Source string
	Theme  *theme.Theme
	Logger *slog.Logger
	Width  int
	Height int
}

// Window is the editor window.
type Window struct {
	sess   *session.Session
	source string
	theme  *theme.Theme
	logger *slog.Logger
	width  int
	height int

	mu   sync.Mutex
	send func(any)

	// Owned by the event loop.
	layout       layout
	view         view
	hover        int
	pressed      bool
	selected     string
	text         string
	message      string
	messageUntil time.Time
	confirmClear bool
	backdrop     *image.RGBA
}

// noticeEvent carries a status message from a background goroutine.
type noticeEvent struct{ text string }

func New(opts Options) *Window {
	th := opts.Theme
	if th == nil {
		th = theme.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	w, h := opts.Width, opts.Height
	if w <= 0 {
		w = 1024
	}
	if h <= 0 {
		h = 768
	}
	return &Window{
		sess:   opts.Session,
		source: opts.Source,
		theme:  th,
		logger: logger,
		width:  w,
		height: h,
		hover:  -1,
	}
}

// Invalidate requests a repaint. It is safe to call from any goroutine,
// before the window opens and after it closes.
func (w *Window) Invalidate() {
	if w == nil {
		return
	}
	w.post(paint.Event{})
}

func (w *Window) post(ev any) {
	w.mu.Lock()
	send := w.send
	w.mu.Unlock()
	if send != nil {
		send(ev)
	}
}

// Run opens the window and blocks until it is closed or ctx is done. The
// session is closed on return.
func (w *Window) Run(ctx context.Context) error {
	if w.sess == nil {
		return errors.New("ui: no session")
	}
	var err error
	driver.Main(func(s screen.Screen) {
		err = w.main(ctx, s)
	})
	return err
}

func (w *Window) main(ctx context.Context, s screen.Screen) error {
	win, err := s.NewWindow(&screen.NewWindowOptions{Width: w.width, Height: w.height, Title: "markup"})
	if err != nil {
		return fmt.Errorf("new window: %w", err)
	}
	defer win.Release()
	defer w.sess.Close()

	w.mu.Lock()
	w.send = win.Send
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.send = nil
		w.mu.Unlock()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, func() { win.Send(lifecycle.Event{To: lifecycle.StageDead}) })
	defer stop()

	w.layout = newLayout(w.width, w.height)
	if w.source != "" {
		go func() {
			if err := w.sess.Load(ctx, w.source); err != nil && !errors.Is(err, session.ErrClosed) {
				w.logger.Error("load image", "source", w.source, "err", err)
			}
			w.Invalidate()
		}()
	}

	for {
		switch e := win.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				return nil
			}
		case size.Event:
			w.layout = newLayout(e.WidthPx, e.HeightPx)
			w.syncViewport()
			win.Send(paint.Event{})
		case paint.Event:
			if err := w.paint(s, win); err != nil {
				w.logger.Error("paint", "err", err)
			}
		case noticeEvent:
			w.notice(e.text)
			win.Send(paint.Event{})
		case mouse.Event:
			if w.handleMouse(e) {
				win.Send(paint.Event{})
			}
		case key.Event:
			if e.Direction == key.DirRelease {
				continue
			}
			quit, repaint := w.handleKey(ctx, e)
			if quit {
				return nil
			}
			if repaint {
				win.Send(paint.Event{})
			}
		case error:
			w.logger.Error("window event", "err", e)
		}
	}
}

func (w *Window) notice(text string) {
	w.message = text
	w.messageUntil = time.Now().Add(messageTimeout)
}

// nativeSize returns the loaded image size, or an empty size.
func (w *Window) nativeSize() geom.Size {
	var sz geom.Size
	w.sess.View(func(ed *editor.Editor) { sz = ed.Size() })
	return sz
}

// syncViewport tells the editor where the image is shown so pointer
// positions map to image pixels.
func (w *Window) syncViewport() {
	var sz geom.Size
	var cur geom.Viewport
	w.sess.View(func(ed *editor.Editor) {
		sz = ed.Size()
		cur = ed.Viewport()
	})
	if sz.Empty() {
		return
	}
	vp := w.view.viewport(sz, w.layout.canvas)
	if vp == cur {
		return
	}
	if _, err := w.sess.Dispatch(editor.SetViewport{Viewport: vp}); err != nil {
		w.logger.Debug("set viewport", "err", err)
	}
}

func (w *Window) dispatch(a editor.Action) bool {
	dirty, err := w.sess.Dispatch(a)
	if err != nil {
		w.logger.Debug("action rejected", "action", fmt.Sprintf("%T", a), "err", err)
		if !errors.Is(err, editor.ErrNotReady) {
			w.notice(err.Error())
			return true
		}
	}
	return dirty
}

func (w *Window) handleMouse(e mouse.Event) bool {
	p := image.Pt(int(e.X), int(e.Y))
	at := geom.Pt(float64(e.X), float64(e.Y))

	switch e.Button {
	case mouse.ButtonWheelUp:
		return w.zoom(zoomStep)
	case mouse.ButtonWheelDown:
		return w.zoom(1 / zoomStep)
	}

	if !w.pressed {
		if hover := w.layout.hit(p); hover != w.hover {
			w.hover = hover
			if e.Direction == mouse.DirNone {
				return true
			}
		}
	}
	if e.Button != mouse.ButtonLeft && e.Direction != mouse.DirNone {
		return false
	}

	switch e.Direction {
	case mouse.DirPress:
		if i := w.layout.hit(p); i >= 0 {
			return w.activate(w.layout.controls[i])
		}
		if !p.In(w.layout.canvas) {
			return false
		}
		w.syncViewport()
		if w.pendingText() {
			// Clicking elsewhere places the typed text.
			w.commitText()
		}
		if w.tool() == annotation.Select {
			return w.selectAt(at)
		}
		w.pressed = true
		w.selected = ""
		return w.dispatch(editor.PointerDown{At: at})
	case mouse.DirNone:
		if !w.pressed {
			return false
		}
		return w.dispatch(editor.PointerMove{At: at})
	case mouse.DirRelease:
		if !w.pressed {
			return false
		}
		w.pressed = false
		w.dispatch(editor.PointerUp{At: at})
		// A text click only opens entry; repaint for the caret.
		return true
	}
	return false
}

func (w *Window) activate(c control) bool {
	switch c.kind {
	case hitTool:
		w.selected = ""
		w.text = ""
		w.dispatch(editor.SelectTool{Tool: c.tool})
		return true
	case hitColor:
		w.dispatch(editor.SetColor{Color: annotation.FromColor(c.color)})
		return true
	case hitWidth:
		return w.stepWidth(c.delta)
	}
	return false
}

func (w *Window) selectAt(at geom.Point) bool {
	var items []annotation.Annotation
	var p geom.Point
	w.sess.View(func(ed *editor.Editor) {
		items = ed.Annotations().Items()
		p = ed.Viewport().Map(at, ed.Size())
	})
	id, _ := pick(items, p)
	changed := id != w.selected
	w.selected = id
	return changed
}

func (w *Window) tool() annotation.Kind {
	var k annotation.Kind
	w.sess.View(func(ed *editor.Editor) { k = ed.Tool() })
	return k
}

func (w *Window) pendingText() bool {
	var pending bool
	w.sess.View(func(ed *editor.Editor) { pending = ed.Mode() == editor.TextPending })
	return pending
}

func (w *Window) commitText() {
	w.dispatch(editor.ConfirmText{Content: w.text})
	w.text = ""
}

func (w *Window) stepWidth(delta int) bool {
	var width int
	w.sess.View(func(ed *editor.Editor) { width = ed.Style().StrokeWidth })
	w.dispatch(editor.SetStrokeWidth{Width: width + delta})
	return true
}

func (w *Window) zoom(f float64) bool {
	sz := w.nativeSize()
	if sz.Empty() {
		return false
	}
	w.view = w.view.zoomBy(f, sz, w.layout.canvas)
	w.syncViewport()
	return true
}

func (w *Window) handleKey(ctx context.Context, e key.Event) (quit, repaint bool) {
	if w.pendingText() {
		next, done, cancel := editText(w.text, e)
		switch {
		case done:
			w.commitText()
		case cancel:
			w.text = ""
			w.dispatch(editor.CancelText{})
		default:
			w.text = next
		}
		return false, true
	}

	cmd, tool := commandFor(e)
	if cmd != cmdClear {
		w.confirmClear = false
	}
	switch cmd {
	case cmdNone:
		return false, false
	case cmdQuit:
		return true, false
	case cmdTool:
		w.selected = ""
		w.dispatch(editor.SelectTool{Tool: tool})
	case cmdUndo:
		w.selected = ""
		w.dispatch(editor.Undo{})
	case cmdRedo:
		w.selected = ""
		w.dispatch(editor.Redo{})
	case cmdSave:
		w.save(ctx)
	case cmdZoomIn:
		w.zoom(zoomStep)
	case cmdZoomOut:
		w.zoom(1 / zoomStep)
	case cmdZoomFit:
		w.view.zoom = 0
		w.syncViewport()
	case cmdRotateLeft:
		w.view = w.view.rotate(-1)
		w.syncViewport()
	case cmdRotateRight:
		w.view = w.view.rotate(1)
		w.syncViewport()
	case cmdWidthDown:
		w.stepWidth(-1)
	case cmdWidthUp:
		w.stepWidth(1)
	case cmdDelete:
		if w.selected == "" {
			return false, false
		}
		w.dispatch(editor.Delete{ID: w.selected})
		w.selected = ""
	case cmdClear:
		if !w.confirmClear {
			w.confirmClear = true
			w.notice("press Ctrl+Delete again to clear all annotations")
			return false, true
		}
		w.confirmClear = false
		w.selected = ""
		w.dispatch(editor.Clear{})
	case cmdDeselect:
		w.selected = ""
	}
	return false, true
}

// save runs the session save in the background and reports the outcome in
// the status line.
func (w *Window) save(ctx context.Context) {
	go func() {
		res, err := w.sess.Save(ctx)
		switch {
		case errors.Is(err, editor.ErrSaveInProgress):
			w.post(noticeEvent{text: "save already in progress"})
		case errors.Is(err, session.ErrClosed):
		case err != nil:
			w.post(noticeEvent{text: "save failed: " + err.Error()})
		default:
			w.post(noticeEvent{text: savedMessage(res.Delivery.Paths, res.Delivery.Clipboard)})
		}
	}()
}

func savedMessage(paths []string, clipboard bool) string {
	msg := "saved"
	if len(paths) > 0 {
		msg += " to " + paths[0]
		if len(paths) > 1 {
			msg += fmt.Sprintf(" (+%d)", len(paths)-1)
		}
	}
	if clipboard {
		msg += ", copied to clipboard"
	}
	return msg
}
