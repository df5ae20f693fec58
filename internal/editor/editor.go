// Package editor holds the annotation editor's state machine. All state
// lives in Editor and changes only through Dispatch, which makes every
// transition explicit and testable without a window.
package editor

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/markup/internal/annotation"
	"github.com/example/markup/internal/geom"
	"github.com/example/markup/internal/history"
)

// Status is the image lifecycle.
type Status int

const (
	Loading Status = iota
	Ready
	Failed
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "loading"
}

// Mode is the tool session state.
type Mode int

const (
	Idle Mode = iota
	Drawing
	TextPending
)

func (m Mode) String() string {
	switch m {
	case Drawing:
		return "drawing"
	case TextPending:
		return "text-pending"
	}
	return "idle"
}

// Editor is the complete editor state.
type Editor struct {
	docID    string
	status   Status
	loadErr  error
	size     geom.Size
	viewport geom.Viewport

	tool  annotation.Kind
	style annotation.Style

	mode        Mode
	inProgress  *annotation.Annotation
	textAnchor  geom.Point
	history     *history.History[annotation.Collection]
	nextZ       int
	saving      bool
	lastSaveErr error
	savedAt     time.Time
}

// Option configures a new Editor.
type Option func(*Editor)

// WithTool selects the initial tool.
func WithTool(k annotation.Kind) Option { return func(e *Editor) { e.tool = k } }

// WithStyle sets the initial tool settings.
func WithStyle(st annotation.Style) Option { return func(e *Editor) { e.style = st } }

// WithDocument reopens a saved record: its annotations become the history
// baseline and its id is kept for later saves.
func WithDocument(d annotation.Document) Option {
	return func(e *Editor) {
		c := d.Collection()
		e.history = history.New(c)
		e.nextZ = c.MaxZ() + 1
		if d.ID != "" {
			e.docID = d.ID
		}
	}
}

// New returns an editor in the Loading state with an empty history.
func New(opts ...Option) *Editor {
	e := &Editor{
		docID:   annotation.NewDocumentID(),
		tool:    annotation.Arrow,
		style:   annotation.DefaultStyle(),
		history: history.New(annotation.Collection{}),
	}
	for _, o := range opts {
		o(e)
	}
	e.style.StrokeWidth = annotation.ClampStrokeWidth(e.style.StrokeWidth)
	e.style.Opacity = annotation.ClampOpacity(e.style.Opacity)
	return e
}

// Dispatch applies a to the editor. dirty reports whether the rendered
// frame (committed annotations or the in-progress one) changed. Rejected
// actions leave the state untouched.
func (e *Editor) Dispatch(a Action) (dirty bool, err error) {
	switch a := a.(type) {
	case ImageLoaded:
		if e.status != Loading {
			return false, ErrUnexpectedLoad
		}
		e.status = Ready
		e.size = a.Size
		return true, nil
	case ImageFailed:
		if e.status != Loading {
			return false, ErrUnexpectedLoad
		}
		e.status = Failed
		e.loadErr = a.Err
		return false, nil
	case SetViewport:
		e.viewport = a.Viewport
		return false, nil
	case SelectTool:
		return e.selectTool(a.Tool)
	case SetColor:
		e.style.Color = a.Color
		return false, nil
	case SetFillColor:
		if a.Color == nil {
			e.style.FillColor = nil
		} else {
			c := *a.Color
			e.style.FillColor = &c
		}
		return false, nil
	case SetStrokeWidth:
		e.style.StrokeWidth = annotation.ClampStrokeWidth(a.Width)
		return false, nil
	case SetOpacity:
		e.style.Opacity = annotation.ClampOpacity(a.Opacity)
		return false, nil
	case SetFontSize:
		if a.Size <= 0 {
			return false, fmt.Errorf("font size %v must be positive", a.Size)
		}
		e.style.FontSize = a.Size
		return false, nil
	case PointerDown:
		return e.pointerDown(a.At)
	case PointerMove:
		return e.pointerMove(a.At)
	case PointerUp:
		return e.pointerUp(a.At)
	case ConfirmText:
		return e.confirmText(a.Content)
	case CancelText:
		if e.mode == TextPending {
			e.mode = Idle
		}
		return false, nil
	case Undo:
		if err := e.editable(); err != nil {
			return false, err
		}
		_, moved := e.history.Undo()
		return moved, nil
	case Redo:
		if err := e.editable(); err != nil {
			return false, err
		}
		_, moved := e.history.Redo()
		return moved, nil
	case Delete:
		if err := e.editable(); err != nil {
			return false, err
		}
		next, ok := e.Annotations().Without(a.ID)
		if !ok {
			return false, fmt.Errorf("%w: %s", ErrNotFound, a.ID)
		}
		e.history.Commit(next)
		return true, nil
	case Clear:
		if err := e.editable(); err != nil {
			return false, err
		}
		if e.Annotations().Len() == 0 {
			return false, nil
		}
		e.history.Commit(annotation.Collection{})
		return true, nil
	case SaveStarted:
		if e.status != Ready {
			return false, ErrNotReady
		}
		if e.saving {
			return false, ErrSaveInProgress
		}
		e.saving = true
		return false, nil
	case SaveFinished:
		if !e.saving {
			return false, nil
		}
		e.saving = false
		e.lastSaveErr = a.Err
		if a.Err == nil {
			e.savedAt = time.Now()
		}
		return false, nil
	}
	return false, fmt.Errorf("editor: unsupported action %T", a)
}

// editable guards history edits: the image must be ready and no shape may
// be mid-draw.
func (e *Editor) editable() error {
	if e.status != Ready {
		return ErrNotReady
	}
	if e.mode == Drawing {
		return ErrToolSessionActive
	}
	return nil
}

func (e *Editor) selectTool(k annotation.Kind) (bool, error) {
	if k != annotation.Select && !k.Drawable() {
		return false, fmt.Errorf("%w: %v", ErrUnknownTool, k)
	}
	if e.mode == Drawing {
		return false, ErrToolSessionActive
	}
	if e.mode == TextPending {
		e.mode = Idle
	}
	e.tool = k
	return false, nil
}

func (e *Editor) pointerDown(at geom.Point) (bool, error) {
	if e.status != Ready {
		return false, ErrNotReady
	}
	p := e.viewport.Map(at, e.size)
	switch {
	case e.mode == Drawing:
		return false, nil
	case e.tool == annotation.Select:
		return false, nil
	case e.tool == annotation.Text:
		e.mode = TextPending
		e.textAnchor = p
		return false, nil
	}
	a := annotation.New(e.tool, p, e.style)
	e.inProgress = &a
	e.mode = Drawing
	return true, nil
}

func (e *Editor) pointerMove(at geom.Point) (bool, error) {
	if e.status != Ready {
		return false, ErrNotReady
	}
	if e.mode != Drawing {
		return false, nil
	}
	a := e.inProgress.Extend(e.viewport.Map(at, e.size))
	e.inProgress = &a
	return true, nil
}

func (e *Editor) pointerUp(at geom.Point) (bool, error) {
	if e.status != Ready {
		return false, ErrNotReady
	}
	if e.mode != Drawing {
		return false, nil
	}
	a := e.inProgress.Extend(e.viewport.Map(at, e.size))
	e.commit(a)
	return true, nil
}

func (e *Editor) confirmText(content string) (bool, error) {
	if e.status != Ready {
		return false, ErrNotReady
	}
	if e.mode != TextPending {
		return false, ErrNoPendingText
	}
	e.mode = Idle
	if strings.TrimSpace(content) == "" {
		return false, nil
	}
	a := annotation.New(annotation.Text, e.textAnchor, e.style)
	a.Text = content
	e.commit(a)
	return true, nil
}

func (e *Editor) commit(a annotation.Annotation) {
	a.ZIndex = e.nextZ
	e.nextZ++
	e.history.Commit(e.Annotations().Append(a))
	e.inProgress = nil
	e.mode = Idle
}

func (e *Editor) Status() Status { return e.status }

// LoadErr returns the error that moved the editor to Failed.
func (e *Editor) LoadErr() error { return e.loadErr }

func (e *Editor) Mode() Mode { return e.mode }

func (e *Editor) Tool() annotation.Kind { return e.tool }

func (e *Editor) Style() annotation.Style { return e.style }

// Size returns the native image size reported by ImageLoaded.
func (e *Editor) Size() geom.Size { return e.size }

func (e *Editor) Viewport() geom.Viewport { return e.viewport }

// Annotations returns the committed collection at the history cursor.
func (e *Editor) Annotations() annotation.Collection { return e.history.Current() }

// InProgress returns a copy of the annotation being drawn, or nil.
func (e *Editor) InProgress() *annotation.Annotation {
	if e.inProgress == nil {
		return nil
	}
	a := *e.inProgress
	return &a
}

// PendingText returns the text anchor while a text entry is open.
func (e *Editor) PendingText() (geom.Point, bool) {
	return e.textAnchor, e.mode == TextPending
}

func (e *Editor) CanUndo() bool { return e.status == Ready && e.mode != Drawing && e.history.CanUndo() }

func (e *Editor) CanRedo() bool { return e.status == Ready && e.mode != Drawing && e.history.CanRedo() }

// HistoryIndex returns the history cursor and the number of snapshots.
func (e *Editor) HistoryIndex() (cursor, length int) { return e.history.Index(), e.history.Len() }

// NextZ returns the ZIndex the next committed annotation will receive.
func (e *Editor) NextZ() int { return e.nextZ }

func (e *Editor) Saving() bool { return e.saving }

// LastSave reports when the last successful save finished and the error of
// the most recent save, if any.
func (e *Editor) LastSave() (time.Time, error) { return e.savedAt, e.lastSaveErr }

// Document snapshots the committed annotations for persistence.
func (e *Editor) Document(source string, at time.Time) annotation.Document {
	d := annotation.NewDocument(source, int(e.size.W), int(e.size.H), e.Annotations(), at)
	d.ID = e.docID
	return d
}
