//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package capture

import (
	"context"
	"image"
)

type unsupportedBackend struct{}

func newBackend() platformBackend { return unsupportedBackend{} }

func (unsupportedBackend) ListMonitors(context.Context) ([]MonitorInfo, error) {
	return nil, ErrUnsupported
}

func (unsupportedBackend) ListWindows(context.Context) ([]WindowInfo, error) {
	return nil, ErrUnsupported
}

func (unsupportedBackend) CaptureScreen(context.Context) (*image.RGBA, error) {
	return nil, ErrUnsupported
}

func (unsupportedBackend) CaptureWindowImage(context.Context, uint32) (*image.RGBA, error) {
	return nil, ErrUnsupported
}
