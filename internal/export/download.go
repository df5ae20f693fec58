package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/markup/internal/clipboard"
)

// ErrNotPNG is returned by ClipboardDownloader for non-PNG data.
var ErrNotPNG = errors.New("clipboard only accepts png data")

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// Delivery describes where a download ended up.
type Delivery struct {
	Paths     []string
	Clipboard bool
}

// Downloader delivers a flattened image, the way a browser download would.
type Downloader interface {
	Download(ctx context.Context, name string, data []byte) (Delivery, error)
}

// DownloadFunc adapts a function to Downloader.
type DownloadFunc func(ctx context.Context, name string, data []byte) (Delivery, error)

func (f DownloadFunc) Download(ctx context.Context, name string, data []byte) (Delivery, error) {
	return f(ctx, name, data)
}

// DirDownloader writes downloads into Dir. An existing file is never
// replaced: "shot.png" becomes "shot (1).png", "shot (2).png" and so on.
type DirDownloader struct {
	Dir string
}

func (d DirDownloader) Download(ctx context.Context, name string, data []byte) (Delivery, error) {
	if err := ctx.Err(); err != nil {
		return Delivery{}, err
	}
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Delivery{}, fmt.Errorf("create download dir: %w", err)
	}
	name = filepath.Base(name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 0; ; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		path := filepath.Join(dir, candidate)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return Delivery{}, fmt.Errorf("create %s: %w", path, err)
		}
		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return Delivery{}, fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return Delivery{}, fmt.Errorf("close %s: %w", path, err)
		}
		return Delivery{Paths: []string{path}}, nil
	}
}

// ClipboardDownloader places PNG data on the system clipboard.
type ClipboardDownloader struct {
	// Write defaults to clipboard.WritePNG.
	Write func([]byte) error
}

func (c ClipboardDownloader) Download(ctx context.Context, _ string, data []byte) (Delivery, error) {
	if err := ctx.Err(); err != nil {
		return Delivery{}, err
	}
	if !bytes.HasPrefix(data, pngMagic) {
		return Delivery{}, ErrNotPNG
	}
	write := c.Write
	if write == nil {
		write = clipboard.WritePNG
	}
	if err := write(data); err != nil {
		return Delivery{}, fmt.Errorf("copy to clipboard: %w", err)
	}
	return Delivery{Clipboard: true}, nil
}

// MultiDownloader tries every downloader, merging deliveries and joining
// failures.
type MultiDownloader []Downloader

func (m MultiDownloader) Download(ctx context.Context, name string, data []byte) (Delivery, error) {
	var out Delivery
	var errs []error
	for _, d := range m {
		got, err := d.Download(ctx, name, data)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out.Paths = append(out.Paths, got.Paths...)
		out.Clipboard = out.Clipboard || got.Clipboard
	}
	return out, errors.Join(errs...)
}
