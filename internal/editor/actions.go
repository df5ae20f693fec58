package editor

import (
	"github.com/example/markup/internal/annotation"
	"github.com/example/markup/internal/geom"
)

// Action is an input to Dispatch.
type Action interface {
	action()
}

type (
	// ImageLoaded moves a loading editor to Ready.
	ImageLoaded struct{ Size geom.Size }
	// ImageFailed moves a loading editor to Failed.
	ImageFailed struct{ Err error }
	// SetViewport records where the surface is displayed.
	SetViewport struct{ Viewport geom.Viewport }

	SelectTool     struct{ Tool annotation.Kind }
	SetColor       struct{ Color annotation.Color }
	SetFillColor   struct{ Color *annotation.Color }
	SetStrokeWidth struct{ Width int }
	SetOpacity     struct{ Opacity float64 }
	SetFontSize    struct{ Size float64 }

	// Pointer positions are client coordinates; they are mapped to image
	// space through the current viewport.
	PointerDown struct{ At geom.Point }
	PointerMove struct{ At geom.Point }
	PointerUp   struct{ At geom.Point }

	ConfirmText struct{ Content string }
	CancelText  struct{}

	Undo   struct{}
	Redo   struct{}
	Delete struct{ ID string }
	Clear  struct{}

	SaveStarted  struct{}
	SaveFinished struct{ Err error }
)

func (ImageLoaded) action()    {}
func (ImageFailed) action()    {}
func (SetViewport) action()    {}
func (SelectTool) action()     {}
func (SetColor) action()       {}
func (SetFillColor) action()   {}
func (SetStrokeWidth) action() {}
func (SetOpacity) action()     {}
func (SetFontSize) action()    {}
func (PointerDown) action()    {}
func (PointerMove) action()    {}
func (PointerUp) action()      {}
func (ConfirmText) action()    {}
func (CancelText) action()     {}
func (Undo) action()           {}
func (Redo) action()           {}
func (Delete) action()         {}
func (Clear) action()          {}
func (SaveStarted) action()    {}
func (SaveFinished) action()   {}
