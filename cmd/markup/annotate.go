package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/example/markup/internal/editor"
	"github.com/example/markup/internal/export"
	"github.com/example/markup/internal/session"
	"github.com/example/markup/internal/store"
	"github.com/example/markup/internal/ui"
)

// annotateCmd opens the editor window for one image.
type annotateCmd struct {
	*root
	fs        *flag.FlagSet
	source    string
	output    string
	format    string
	backend   string
	clipboard bool
	resume    bool
	noStore   bool
	width     int
	height    int
}

func (a *annotateCmd) FlagSet() *flag.FlagSet {
	return a.fs
}

func parseAnnotateCmd(args []string, r *root) (*annotateCmd, error) {
	fs := flag.NewFlagSet("annotate", flag.ExitOnError)
	a := &annotateCmd{root: r, fs: fs}
	fs.Usage = usageFunc(a)
	cfg := rootConfig(r)
	format, clip := cfg.Export.Format, cfg.Export.Clipboard
	fs.StringVar(&a.source, "source", "", "image to annotate: URL, file, clipboard: or x11:...")
	fs.StringVar(&a.output, "output", "", "directory for exported images (defaults to save_dir)")
	fs.StringVar(&a.format, "format", format, "export format (png or pdf)")
	fs.StringVar(&a.backend, "backend", "", "render backend (raster or vector)")
	fs.BoolVar(&a.clipboard, "clipboard", clip, "also copy the exported image to the clipboard")
	fs.BoolVar(&a.resume, "resume", false, "reopen the last saved annotations for this source")
	fs.BoolVar(&a.noStore, "no-store", false, "do not store the annotation record")
	fs.IntVar(&a.width, "window-width", 1024, "initial window width")
	fs.IntVar(&a.height, "window-height", 768, "initial window height")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if a.source == "" && fs.NArg() > 0 {
		a.source = fs.Arg(0)
	}
	if a.source == "" {
		return nil, &UsageError{of: a}
	}
	f, err := export.ParseFormat(a.format)
	if err != nil {
		return nil, err
	}
	if a.clipboard && f != export.PNG {
		return nil, fmt.Errorf("-clipboard requires png export, not %s", f)
	}
	return a, nil
}

func (a *annotateCmd) Run(ctx context.Context) error {
	format, err := export.ParseFormat(a.format)
	if err != nil {
		return err
	}
	rend, err := a.renderer(a.backend)
	if err != nil {
		return err
	}
	opts, err := editorOptions(a.config.Editor)
	if err != nil {
		return err
	}

	var st store.Store
	if !a.noStore {
		if st, err = a.openStore(); err != nil {
			return err
		}
		defer st.Close()
	}
	if a.resume {
		if st == nil {
			return errors.New("-resume needs the annotation store")
		}
		doc, err := st.Latest(ctx, a.source)
		switch {
		case errors.Is(err, store.ErrNotFound):
			a.logger.Info("no saved annotations", "source", a.source)
		case err != nil:
			return fmt.Errorf("resume annotations: %w", err)
		default:
			a.logger.Info("resuming annotations", "document", doc.ID, "annotations", len(doc.Annotations))
			opts = append(opts, editor.WithDocument(doc))
		}
	}

	dir := a.output
	if dir == "" {
		dir = a.saveDir()
	}
	dl := withClipboard(export.DirDownloader{Dir: dir}, a.clipboard)

	var win *ui.Window
	sess := session.New(session.Options{
		Loader:   a.sourceLoader(),
		Saver:    a.newAdapter(rend, format, st, dl),
		Renderer: rend,
		Logger:   a.logger,
		Editor:   opts,
		OnChange: func() { win.Invalidate() },
	})
	win = ui.New(ui.Options{
		Session: sess,
		Source:  a.source,
		Theme:   a.activeTheme,
		Logger:  a.logger,
		Width:   a.width,
		Height:  a.height,
	})
	return win.Run(ctx)
}
