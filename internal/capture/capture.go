// Package capture grabs screen, monitor or window pixels to annotate.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"strings"
)

var (
	// ErrUnsupported is returned on platforms without a capture backend.
	ErrUnsupported = errors.New("screen capture is not supported on this platform")

	errNoMonitors = errors.New("no monitors available")
	errNoWindows  = errors.New("no windows available")
)

// MonitorInfo describes a monitor in the display layout.
type MonitorInfo struct {
	Index   int
	Name    string
	Rect    image.Rectangle
	Primary bool
}

// WindowInfo describes a top-level window available for capture.
type WindowInfo struct {
	Index      int
	ID         uint32
	Title      string
	Class      string
	Instance   string
	PID        uint32
	Executable string
	Rect       image.Rectangle
	Monitor    int
	Active     bool
}

type platformBackend interface {
	ListMonitors(ctx context.Context) ([]MonitorInfo, error)
	ListWindows(ctx context.Context) ([]WindowInfo, error)
	CaptureScreen(ctx context.Context) (*image.RGBA, error)
	CaptureWindowImage(ctx context.Context, id uint32) (*image.RGBA, error)
}

var backend = newBackend()

// Kind selects what a Target captures.
type Kind int

const (
	Screen Kind = iota
	Monitor
	Window
)

// Target is a parsed capture reference.
type Target struct {
	Kind     Kind
	Selector string
}

// ParseTarget parses "x11:", "x11:screen", "x11:monitor:<selector>" and
// "x11:window:<selector>". Selectors follow FindMonitor and SelectWindow.
func ParseTarget(ref string) (Target, error) {
	rest, ok := strings.CutPrefix(ref, "x11:")
	if !ok {
		return Target{}, fmt.Errorf("capture reference %q must start with x11:", ref)
	}
	kind, sel, _ := strings.Cut(rest, ":")
	switch strings.ToLower(kind) {
	case "", "screen":
		return Target{Kind: Screen}, nil
	case "monitor":
		return Target{Kind: Monitor, Selector: sel}, nil
	case "window":
		return Target{Kind: Window, Selector: sel}, nil
	}
	return Target{}, fmt.Errorf("unknown capture kind %q", kind)
}

// Capture grabs t and returns a zero-origin image.
func Capture(ctx context.Context, t Target) (*image.RGBA, error) {
	switch t.Kind {
	case Monitor:
		return CaptureMonitor(ctx, t.Selector)
	case Window:
		img, _, err := CaptureWindow(ctx, t.Selector)
		return img, err
	}
	return backend.CaptureScreen(ctx)
}

// ListMonitors returns the connected monitors.
func ListMonitors(ctx context.Context) ([]MonitorInfo, error) {
	return backend.ListMonitors(ctx)
}

// ListWindows returns the top-level windows, topmost first.
func ListWindows(ctx context.Context) ([]WindowInfo, error) {
	return backend.ListWindows(ctx)
}

// CaptureMonitor captures the whole screen and crops it to one monitor.
func CaptureMonitor(ctx context.Context, selector string) (*image.RGBA, error) {
	monitors, err := backend.ListMonitors(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture monitor %q: %w", selector, err)
	}
	mon, err := FindMonitor(monitors, selector)
	if err != nil {
		return nil, err
	}
	shot, err := backend.CaptureScreen(ctx)
	if err != nil {
		return nil, err
	}
	return cropToRect(shot, mon.Rect)
}

// CaptureWindow captures the window matching selector. It reads the window's
// own pixels when the server allows it and otherwise crops a screen capture
// to the window's geometry.
func CaptureWindow(ctx context.Context, selector string) (*image.RGBA, WindowInfo, error) {
	windows, err := backend.ListWindows(ctx)
	if err != nil {
		return nil, WindowInfo{}, fmt.Errorf("capture window %q: %w", selector, err)
	}
	info, err := SelectWindow(selector, windows)
	if err != nil {
		return nil, WindowInfo{}, err
	}
	if info.Rect.Empty() {
		return nil, WindowInfo{}, fmt.Errorf("window 0x%x has empty geometry", info.ID)
	}
	img, directErr := backend.CaptureWindowImage(ctx, info.ID)
	if directErr == nil {
		return img, info, nil
	}
	shot, err := backend.CaptureScreen(ctx)
	if err != nil {
		return nil, WindowInfo{}, fmt.Errorf("window capture: %v; fallback screenshot failed: %w", directErr, err)
	}
	img, err = cropToRect(shot, info.Rect)
	if err != nil {
		return nil, WindowInfo{}, fmt.Errorf("window capture: %v; fallback crop failed: %w", directErr, err)
	}
	return img, info, nil
}

func cropToRect(src *image.RGBA, rect image.Rectangle) (*image.RGBA, error) {
	rect = rect.Intersect(src.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("requested region outside captured image")
	}
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Src)
	return dst, nil
}
