// Package source fetches the image to annotate from a reference: an HTTP
// URL, a file, the clipboard or an X11 capture.
package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/example/markup/internal/capture"
	"github.com/example/markup/internal/clipboard"
	"github.com/example/markup/internal/tracing"
)

// DefaultMaxBytes bounds how much is read from a single reference.
const DefaultMaxBytes = 256 << 20

// ErrTooLarge is returned when a reference exceeds MaxBytes.
var ErrTooLarge = errors.New("image exceeds size limit")

// LoadError describes a failed load.
type LoadError struct {
	Ref string
	Err error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load %s: %v", e.Ref, e.Err) }

func (e *LoadError) Unwrap() error { return e.Err }

// StatusError is returned for HTTP responses outside 2xx.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string { return "unexpected HTTP status " + e.Status }

// Loader resolves image references.
type Loader struct {
	Client   *http.Client
	Logger   *slog.Logger
	MaxBytes int64

	readClipboard func() (image.Image, error)
	capture       func(context.Context, capture.Target) (*image.RGBA, error)
}

// NewLoader returns a loader using client, or http.DefaultClient when nil.
func NewLoader(client *http.Client, logger *slog.Logger) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{
		Client:        client,
		Logger:        logger,
		MaxBytes:      DefaultMaxBytes,
		readClipboard: clipboard.ReadImage,
		capture:       capture.Capture,
	}
}

// Load fetches and decodes ref into a zero-origin RGBA image. Accepted
// references are http(s) URLs, file:// URLs or plain paths, "clipboard:",
// and "x11:" capture targets. Every failure is a *LoadError.
func (l *Loader) Load(ctx context.Context, ref string) (img *image.RGBA, err error) {
	ctx, span := tracing.StartSpan(ctx, "source.load", attribute.String("ref", ref))
	defer func() {
		if err != nil {
			err = &LoadError{Ref: ref, Err: err}
		} else {
			b := img.Bounds()
			span.SetAttributes(attribute.Int("width", b.Dx()), attribute.Int("height", b.Dy()))
		}
		tracing.End(span, err)
	}()

	var format string
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		img, format, err = l.fetch(ctx, ref)
	case ref == "clipboard:":
		var src image.Image
		if src, err = l.readClipboard(); err == nil {
			img, format = toRGBA(src), "png"
		}
	case strings.HasPrefix(ref, "x11:"):
		var t capture.Target
		if t, err = capture.ParseTarget(ref); err == nil {
			img, err = l.capture(ctx, t)
			format = "x11"
		}
	default:
		img, format, err = l.open(ctx, ref)
	}
	if err != nil {
		l.Logger.Warn("image load failed", "ref", ref, "err", err)
		return nil, err
	}
	if img.Bounds().Empty() {
		return nil, errors.New("image has no pixels")
	}
	l.Logger.Debug("image loaded", "ref", ref, "format", format, "size", img.Bounds().Size())
	return img, nil
}

func (l *Loader) fetch(ctx context.Context, ref string) (*image.RGBA, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "image/*")
	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, "", &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	return l.decode(resp.Body)
}

func (l *Loader) open(ctx context.Context, ref string) (*image.RGBA, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	path, ok := LocalPath(ref)
	if !ok {
		return nil, "", fmt.Errorf("unsupported image reference %q", ref)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	return l.decode(f)
}

// LocalPath returns the file path for a file:// URL or plain path
// reference. Other references report false.
func LocalPath(ref string) (string, bool) {
	switch {
	case ref == "", ref == "clipboard:",
		strings.HasPrefix(ref, "x11:"),
		strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return "", false
	case strings.HasPrefix(ref, "file://"):
		u, err := url.Parse(ref)
		if err != nil || u.Path == "" {
			return "", false
		}
		return u.Path, true
	}
	return ref, true
}

func (l *Loader) decode(r io.Reader) (*image.RGBA, string, error) {
	limit := l.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	lr := &io.LimitedReader{R: r, N: limit + 1}
	src, format, err := image.Decode(bufio.NewReader(lr))
	if lr.N <= 0 {
		return nil, "", ErrTooLarge
	}
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return toRGBA(src), format, nil
}

// toRGBA copies src into a new RGBA image whose bounds start at (0, 0).
func toRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	if rgba, ok := src.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
