// Package clipboard moves PNG images and text through the system clipboard.
package clipboard

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
)

var (
	ErrNoDisplay   = errors.New("clipboard requires DISPLAY or WAYLAND_DISPLAY")
	ErrUnsupported = errors.New("clipboard is not supported on this platform")
	ErrEmpty       = errors.New("clipboard does not contain the requested data")
)

type format int

const (
	formatText format = iota
	formatPNG
)

func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

// WritePNG publishes already encoded PNG data.
func WritePNG(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("write clipboard: %w", ErrEmpty)
	}
	return write(formatPNG, data)
}

// WriteImage encodes img as PNG and publishes it.
func WriteImage(img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode clipboard image: %w", err)
	}
	return WritePNG(buf.Bytes())
}

// ReadImage decodes the PNG currently on the clipboard.
func ReadImage() (image.Image, error) {
	data, err := read(formatPNG)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode clipboard image: %w", err)
	}
	return img, nil
}

func WriteText(text string) error {
	return write(formatText, []byte(text))
}

func ReadText() (string, error) {
	data, err := read(formatText)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimRight(data, "\x00")), nil
}
