// Package export turns an editing session into its two outputs: the
// flattened image, delivered through a Downloader, and the structured
// annotation record, handed to the save callback.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/example/markup/internal/annotation"
	"github.com/example/markup/internal/notify"
	"github.com/example/markup/internal/render"
	"github.com/example/markup/internal/tracing"
)

// SaveFunc receives the structured annotation record.
type SaveFunc func(ctx context.Context, doc annotation.Document) error

// Adapter flattens and saves annotated images.
type Adapter struct {
	Renderer *render.Renderer
	Format   Format
	// Shadow, when set, surrounds exported images with a drop shadow.
	Shadow   *render.Shadow
	OnSave   SaveFunc
	Download Downloader
	Notifier *notify.Notifier
	Logger   *slog.Logger
}

// Request is one save: the source image and the document describing its
// annotations.
type Request struct {
	Source   image.Image
	Document annotation.Document
	// Name is the download file name without extension. It defaults to the
	// base name of the document source.
	Name string
}

// Result reports what a save produced.
type Result struct {
	Delivery Delivery
	Saved    bool
	Bytes    int
}

func (a *Adapter) renderer() *render.Renderer {
	if a.Renderer == nil {
		return render.New(nil, a.logger())
	}
	return a.Renderer
}

func (a *Adapter) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.Logger
}

// Flatten renders anns onto a copy of src.
func (a *Adapter) Flatten(src image.Image, anns []annotation.Annotation) *image.RGBA {
	return a.renderer().Render(src, anns, nil)
}

// Export flattens and encodes in the adapter's format.
func (a *Adapter) Export(src image.Image, anns []annotation.Annotation) ([]byte, error) {
	return a.encode(a.Flatten(src, anns), "")
}

func (a *Adapter) encode(img *image.RGBA, title string) ([]byte, error) {
	if a.Shadow != nil {
		img, _ = a.Shadow.Apply(img)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, img, a.Format, title); err != nil {
		return nil, fmt.Errorf("encode %s: %w", a.format(), err)
	}
	return buf.Bytes(), nil
}

func (a *Adapter) format() Format {
	if a.Format == "" {
		return PNG
	}
	return a.Format
}

// Save hands the document to OnSave and delivers the flattened image
// through Download. Both are attempted even if one fails; their errors are
// joined.
func (a *Adapter) Save(ctx context.Context, req Request) (res Result, err error) {
	ctx, span := tracing.StartSpan(ctx, "export.save",
		attribute.String("document.id", req.Document.ID),
		attribute.Int("annotations", len(req.Document.Annotations)),
		attribute.String("format", string(a.format())),
	)
	defer func() { tracing.End(span, err) }()

	log := a.logger().With("document", req.Document.ID)
	var errs []error

	if a.OnSave != nil {
		if err := a.OnSave(ctx, req.Document); err != nil {
			log.Error("save annotations", "err", err)
			errs = append(errs, fmt.Errorf("save annotations: %w", err))
		} else {
			res.Saved = true
			a.Notifier.Save(ctx, displayName(req.Document.Source))
		}
	}

	if a.Download != nil && req.Source != nil {
		img := a.Flatten(req.Source, req.Document.Annotations)
		data, err := a.encode(img, req.Document.Source)
		if err == nil {
			res.Bytes = len(data)
			res.Delivery, err = a.Download.Download(ctx, a.fileName(req), data)
		}
		if err != nil {
			log.Error("download", "err", err)
			errs = append(errs, fmt.Errorf("download: %w", err))
		}
		for _, p := range res.Delivery.Paths {
			log.Info("exported", "path", p)
			a.Notifier.Export(ctx, p)
		}
		if res.Delivery.Clipboard {
			a.Notifier.Copy(ctx, "", img)
		}
	}

	return res, errors.Join(errs...)
}

func (a *Adapter) fileName(req Request) string {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = displayName(req.Document.Source)
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	if name == "" || name == "." || name == "/" {
		name = "annotated"
	}
	return name + a.format().Ext()
}

// displayName reduces an image reference to its last path element.
func displayName(source string) string {
	source = strings.TrimSpace(source)
	if i := strings.IndexAny(source, "?#"); i >= 0 {
		source = source[:i]
	}
	source = strings.TrimRight(source, "/")
	if i := strings.LastIndexAny(source, "/:"); i >= 0 {
		source = source[i+1:]
	}
	return source
}
