package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/example/markup/internal/annotation"
	"github.com/example/markup/internal/export"
	"github.com/example/markup/internal/store"
)

// renderCmd flattens a saved annotation record onto its image again.
type renderCmd struct {
	*root
	fs          *flag.FlagSet
	source      string
	annotations string
	record      string
	output      string
	backend     string
}

func (c *renderCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseRenderCmd(args []string, r *root) (*renderCmd, error) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	c := &renderCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.source, "source", "", "image to render onto (defaults to the record's source)")
	fs.StringVar(&c.annotations, "annotations", "", "annotation record file (json or yaml)")
	fs.StringVar(&c.record, "record", "", "document id in the sqlite store")
	fs.StringVar(&c.output, "output", "", "output file; the extension selects png or pdf")
	fs.StringVar(&c.backend, "backend", "", "render backend (raster or vector)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.output == "" || (c.annotations == "") == (c.record == "") {
		return nil, &UsageError{of: c}
	}
	if _, err := formatForPath(c.output); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *renderCmd) Run(ctx context.Context) error {
	doc, err := c.loadDocument(ctx)
	if err != nil {
		return err
	}
	ref := c.source
	if ref == "" {
		ref = doc.Source
	}
	if ref == "" {
		return errors.New("the record has no source; pass -source")
	}
	img, err := c.sourceLoader().Load(ctx, ref)
	if err != nil {
		return err
	}
	if b := img.Bounds(); b.Dx() != doc.Width || b.Dy() != doc.Height {
		c.logger.Warn("image size differs from the record",
			"source", ref, "image", b.Size(), "record_width", doc.Width, "record_height", doc.Height)
	}

	format, err := formatForPath(c.output)
	if err != nil {
		return err
	}
	rend, err := c.renderer(c.backend)
	if err != nil {
		return err
	}
	a := c.newAdapter(rend, format, nil, fileDownloader(c.output))
	res, err := a.Save(ctx, export.Request{Source: img, Document: doc})
	if err != nil {
		return err
	}
	for _, p := range res.Delivery.Paths {
		fmt.Fprintf(os.Stderr, "rendered %d annotations to %s\n", len(doc.Annotations), p)
	}
	return nil
}

func (c *renderCmd) loadDocument(ctx context.Context) (annotation.Document, error) {
	if c.annotations != "" {
		return store.LoadFile(c.annotations)
	}
	db, err := c.openSQLite()
	if err != nil {
		return annotation.Document{}, err
	}
	defer db.Close()
	return db.Load(ctx, c.record)
}

// openSQLite opens the configured store and requires it to be SQLite.
func (r *root) openSQLite() (*store.SQLiteStore, error) {
	st, err := r.openStore()
	if err != nil {
		return nil, err
	}
	db, ok := st.(*store.SQLiteStore)
	if !ok {
		_ = st.Close()
		return nil, fmt.Errorf("records need the sqlite store; set kind = sqlite in [store]")
	}
	return db, nil
}
