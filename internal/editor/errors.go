package editor

import "errors"

var (
	// ErrNotReady is returned for drawing and editing actions before the
	// image has loaded, or after it failed to load.
	ErrNotReady = errors.New("editor: image not ready")
	// ErrToolSessionActive is returned when an action would interrupt a
	// shape that is still being drawn.
	ErrToolSessionActive = errors.New("editor: tool session active")
	// ErrSaveInProgress rejects a second save while one is running.
	ErrSaveInProgress = errors.New("editor: save already in progress")
	ErrNoPendingText  = errors.New("editor: no pending text")
	ErrNotFound       = errors.New("editor: annotation not found")
	ErrUnknownTool    = errors.New("editor: unknown tool")
	ErrUnexpectedLoad = errors.New("editor: image already resolved")
)
