package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/example/markup/internal/annotation"
	"github.com/example/markup/internal/tracing"
)

const sidecarSuffix = ".annotations"

// FileStore writes each document to "<image name>.annotations.<ext>" in Dir.
// Saving the same source again replaces the previous record.
type FileStore struct {
	Dir    string
	Format annotation.Format
}

// Path returns the sidecar file used for source.
func (s *FileStore) Path(source string) string {
	name := baseName(source)
	if name == "" {
		name = "annotated"
	}
	return filepath.Join(s.Dir, name+sidecarSuffix+"."+s.Format.Ext())
}

func (s *FileStore) Save(ctx context.Context, doc annotation.Document) (err error) {
	path := s.Path(doc.Source)
	_, span := tracing.StartSpan(ctx, "store.file.save", attribute.String("path", path))
	defer func() { tracing.End(span, err) }()

	if s.Dir != "" {
		if err := os.MkdirAll(s.Dir, 0o755); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".markup-*")
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if err := annotation.Encode(tmp, doc, s.Format); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func (s *FileStore) Latest(ctx context.Context, source string) (annotation.Document, error) {
	if err := ctx.Err(); err != nil {
		return annotation.Document{}, err
	}
	return LoadFile(s.Path(source))
}

func (s *FileStore) Close() error { return nil }

// LoadFile decodes a document, choosing JSON or YAML by extension.
func LoadFile(path string) (annotation.Document, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return annotation.Document{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return annotation.Document{}, err
	}
	defer f.Close()
	doc, err := annotation.Decode(f, annotation.FormatForPath(path))
	if err != nil {
		return annotation.Document{}, fmt.Errorf("load %s: %w", path, err)
	}
	return doc, nil
}

// baseName reduces an image reference to its file name without extension.
func baseName(source string) string {
	source = strings.TrimSpace(source)
	if i := strings.IndexAny(source, "?#"); i >= 0 {
		source = source[:i]
	}
	source = strings.TrimRight(source, "/")
	if i := strings.LastIndexAny(source, `/\:`); i >= 0 {
		source = source[i+1:]
	}
	return strings.TrimSuffix(source, filepath.Ext(source))
}
