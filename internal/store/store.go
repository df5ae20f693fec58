// Package store persists annotation documents, either as sidecar files next
// to exported images or in a SQLite database.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/markup/internal/annotation"
	"github.com/example/markup/internal/config"
)

// ErrNotFound is returned when no document matches.
var ErrNotFound = errors.New("annotation document not found")

// Store saves and retrieves annotation documents.
type Store interface {
	Save(ctx context.Context, doc annotation.Document) error
	// Latest returns the most recently saved document for an image source.
	Latest(ctx context.Context, source string) (annotation.Document, error)
	Close() error
}

// Open returns the store described by cfg. Relative or empty paths are
// resolved against saveDir.
func Open(cfg config.Store, saveDir string) (Store, error) {
	switch strings.ToLower(cfg.Kind) {
	case "", "file":
		f, err := annotation.ParseFormat(cfg.Format)
		if err != nil {
			return nil, err
		}
		return &FileStore{Dir: resolve(saveDir, cfg.Path, ""), Format: f}, nil
	case "sqlite":
		return OpenSQLite(resolve(saveDir, cfg.Path, "markup.db"))
	}
	return nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
}

func resolve(dir, path, fallback string) string {
	if path == "" {
		path = fallback
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	if filepath.IsAbs(path) || dir == "" {
		return path
	}
	return filepath.Join(dir, path)
}
