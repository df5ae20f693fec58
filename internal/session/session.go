// Package session ties an editor to its image, renderer and save path. All
// editor transitions run behind one mutex; image loading and saving do
// their I/O outside it so the UI stays responsive.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/example/markup/internal/annotation"
	"github.com/example/markup/internal/editor"
	"github.com/example/markup/internal/export"
	"github.com/example/markup/internal/geom"
	"github.com/example/markup/internal/render"
)

// ErrClosed is returned for actions on a closed session.
var ErrClosed = errors.New("session: closed")

// Loader fetches the source image.
type Loader interface {
	Load(ctx context.Context, ref string) (*image.RGBA, error)
}

// Saver persists the annotations and delivers the flattened image.
type Saver interface {
	Save(ctx context.Context, req export.Request) (export.Result, error)
}

// Options configures a Session.
type Options struct {
	Loader   Loader
	Saver    Saver
	Renderer *render.Renderer
	Logger   *slog.Logger
	Editor   []editor.Option
	// OnChange runs, without the session lock held, after the frame or the
	// save state changes.
	OnChange func()
}

// Session is one open image.
type Session struct {
	mu       sync.Mutex
	ed       *editor.Editor
	ref      string
	src      *image.RGBA
	frame    *image.RGBA
	closed   bool
	loader   Loader
	saver    Saver
	renderer *render.Renderer
	logger   *slog.Logger
	onChange func()
	now      func() time.Time
}

func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = render.New(nil, logger)
	}
	return &Session{
		ed:       editor.New(opts.Editor...),
		loader:   opts.Loader,
		saver:    opts.Saver,
		renderer: renderer,
		logger:   logger,
		onChange: opts.OnChange,
		now:      time.Now,
	}
}

// Load fetches ref and moves the editor to Ready or Failed. Drawing is
// rejected until it returns. If the session is closed meanwhile the result
// is dropped.
func (s *Session) Load(ctx context.Context, ref string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.ed.Status() != editor.Loading {
		s.mu.Unlock()
		return editor.ErrUnexpectedLoad
	}
	s.ref = ref
	s.mu.Unlock()

	if s.loader == nil {
		return s.fail(ref, errors.New("no image loader configured"))
	}
	img, err := s.loader.Load(ctx, ref)
	if err != nil {
		return s.fail(ref, err)
	}
	return s.Open(ref, img)
}

// Open installs an already decoded image, as Load does after fetching.
func (s *Session) Open(ref string, img *image.RGBA) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Debug("dropping load result for closed session", "ref", ref)
		return nil
	}
	_, err := s.ed.Dispatch(editor.ImageLoaded{Size: geom.SizeOf(img.Bounds())})
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.ref = ref
	s.src = img
	s.renderLocked()
	s.mu.Unlock()

	s.logger.Info("image ready", "ref", ref, "size", img.Bounds().Size())
	s.changed()
	return nil
}

func (s *Session) fail(ref string, err error) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return err
	}
	_, _ = s.ed.Dispatch(editor.ImageFailed{Err: err})
	s.mu.Unlock()
	s.logger.Error("image load failed", "ref", ref, "err", err)
	s.changed()
	return err
}

// Dispatch applies a to the editor and re-renders the frame when it changed.
func (s *Session) Dispatch(a editor.Action) (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, ErrClosed
	}
	dirty, err := s.ed.Dispatch(a)
	if dirty {
		s.renderLocked()
	}
	s.mu.Unlock()

	if dirty {
		s.changed()
	}
	return dirty, err
}

// Save hands the current annotations and frame to the Saver. A second call
// while one is running fails with editor.ErrSaveInProgress. Editing may
// continue while the save runs; the saved document is the state at the
// time of the call.
func (s *Session) Save(ctx context.Context) (export.Result, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return export.Result{}, ErrClosed
	}
	if s.saver == nil {
		s.mu.Unlock()
		return export.Result{}, errors.New("no saver configured")
	}
	if _, err := s.ed.Dispatch(editor.SaveStarted{}); err != nil {
		s.mu.Unlock()
		return export.Result{}, err
	}
	req := export.Request{Source: s.src, Document: s.ed.Document(s.ref, s.now())}
	s.mu.Unlock()
	s.changed()

	res, err := s.saver.Save(ctx, req)
	if err != nil {
		s.logger.Error("save failed", "document", req.Document.ID, "err", err)
	} else {
		s.logger.Info("saved", "document", req.Document.ID, "annotations", len(req.Document.Annotations))
	}

	s.mu.Lock()
	if !s.closed {
		_, _ = s.ed.Dispatch(editor.SaveFinished{Err: err})
	}
	s.mu.Unlock()
	s.changed()
	return res, err
}

// Close marks the session closed. In-flight loads and saves finish but
// their results no longer touch the editor.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Frame returns the most recent render, or nil before the image is ready.
// The image must not be modified.
func (s *Session) Frame() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Source returns the loaded image, or nil.
func (s *Session) Source() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src
}

// View calls fn with the editor while holding the session lock. fn must
// not retain the editor or call back into the session.
func (s *Session) View(fn func(ed *editor.Editor)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.ed)
}

// Document snapshots the committed annotations.
func (s *Session) Document() annotation.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ed.Document(s.ref, s.now())
}

// Status summarises the session for a status line.
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ed := s.ed
	switch ed.Status() {
	case editor.Loading:
		return "Loading " + s.ref
	case editor.Failed:
		return fmt.Sprintf("Failed to load image: %v", ed.LoadErr())
	}
	msg := fmt.Sprintf("%s | %d annotations", ed.Tool(), ed.Annotations().Len())
	if ed.Saving() {
		return msg + " | saving..."
	}
	if at, err := ed.LastSave(); err != nil {
		msg += " | save failed: " + err.Error()
	} else if !at.IsZero() {
		msg += " | saved " + at.Format("15:04:05")
	}
	return msg
}

func (s *Session) renderLocked() {
	if s.src == nil {
		return
	}
	s.frame = s.renderer.Render(s.src, s.ed.Annotations().Items(), s.ed.InProgress())
}

func (s *Session) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}
