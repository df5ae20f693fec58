package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gogpu/gg"

	"github.com/example/markup/internal/annotation"
	"github.com/example/markup/internal/config"
	"github.com/example/markup/internal/editor"
	"github.com/example/markup/internal/export"
	"github.com/example/markup/internal/render"
	"github.com/example/markup/internal/source"
	"github.com/example/markup/internal/store"
)

const fetchTimeout = 30 * time.Second

// rootConfig returns the loaded configuration, or the defaults when
// commands are parsed without a root.
func rootConfig(r *root) *config.Config {
	if r == nil || r.config == nil {
		return config.New()
	}
	return r.config
}

// saveDir returns the configured download directory with ~ expanded.
func (r *root) saveDir() string {
	dir := strings.TrimSpace(r.config.SaveDir)
	if dir == "" {
		return "."
	}
	if strings.HasPrefix(dir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, dir[2:])
		}
	}
	return dir
}

func (r *root) renderer(backend string) (*render.Renderer, error) {
	if backend == "" {
		backend = r.config.Export.Backend
	}
	b, err := render.BackendByName(backend)
	if err != nil {
		return nil, err
	}
	if b.Name() == "vector" {
		gg.SetLogger(r.logger)
	}
	return render.New(b, r.logger), nil
}

func (r *root) openStore() (store.Store, error) {
	st, err := store.Open(r.config.Store, r.saveDir())
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", r.config.Store.Kind, err)
	}
	return st, nil
}

func (r *root) sourceLoader() *source.Loader {
	return source.NewLoader(&http.Client{Timeout: fetchTimeout}, r.logger)
}

func (r *root) newAdapter(rend *render.Renderer, format export.Format, st store.Store, dl export.Downloader) *export.Adapter {
	a := &export.Adapter{
		Renderer: rend,
		Format:   format,
		Download: dl,
		Notifier: r.notifier,
		Logger:   r.logger,
	}
	if st != nil {
		a.OnSave = st.Save
	}
	if r.config.Export.Shadow {
		sh := render.DefaultShadow()
		a.Shadow = &sh
	}
	return a
}

// withClipboard adds the clipboard as a second delivery target.
func withClipboard(dl export.Downloader, clip bool) export.Downloader {
	if !clip {
		return dl
	}
	return export.MultiDownloader{dl, export.ClipboardDownloader{}}
}

// fileDownloader writes every download to path, replacing it.
func fileDownloader(path string) export.Downloader {
	return export.DownloadFunc(func(ctx context.Context, _ string, data []byte) (export.Delivery, error) {
		if err := ctx.Err(); err != nil {
			return export.Delivery{}, err
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return export.Delivery{}, err
			}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return export.Delivery{}, err
		}
		return export.Delivery{Paths: []string{path}}, nil
	})
}

// editorStyle builds the initial tool settings from the [editor] section.
func editorStyle(c config.Editor) (annotation.Style, error) {
	st := annotation.DefaultStyle()
	if c.Color != "" {
		col, err := annotation.ParseColor(c.Color)
		if err != nil {
			return st, fmt.Errorf("editor color: %w", err)
		}
		st.Color = col
	}
	if c.StrokeWidth > 0 {
		st.StrokeWidth = c.StrokeWidth
	}
	if c.FontSize > 0 {
		st.FontSize = c.FontSize
	}
	if c.Opacity > 0 {
		st.Opacity = c.Opacity
	}
	return st, nil
}

func editorOptions(c config.Editor) ([]editor.Option, error) {
	st, err := editorStyle(c)
	if err != nil {
		return nil, err
	}
	opts := []editor.Option{editor.WithStyle(st)}
	if c.Tool != "" {
		k, err := annotation.ParseKind(c.Tool)
		if err != nil {
			return nil, fmt.Errorf("editor tool: %w", err)
		}
		opts = append(opts, editor.WithTool(k))
	}
	return opts, nil
}

// formatForPath picks the export format from an output file extension.
func formatForPath(path string) (export.Format, error) {
	return export.ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}
