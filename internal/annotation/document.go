package annotation

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"
)

// Document is the persisted form of an annotated image: the annotations
// plus enough about the source to reopen it.
type Document struct {
	ID          string       `json:"id" yaml:"id"`
	Source      string       `json:"source,omitempty" yaml:"source,omitempty"`
	Width       int          `json:"width" yaml:"width"`
	Height      int          `json:"height" yaml:"height"`
	Annotations []Annotation `json:"annotations" yaml:"annotations"`
	SavedAt     time.Time    `json:"savedAt" yaml:"savedAt"`
}

// NewDocumentID returns a sortable document id.
func NewDocumentID() string {
	return ulid.Make().String()
}

// NewDocument snapshots c into a document with a fresh id.
func NewDocument(source string, width, height int, c Collection, at time.Time) Document {
	return Document{
		ID:          NewDocumentID(),
		Source:      source,
		Width:       width,
		Height:      height,
		Annotations: c.Items(),
		SavedAt:     at.UTC(),
	}
}

// Collection returns the document's annotations as a collection.
func (d Document) Collection() Collection {
	return NewCollection(d.Annotations...)
}

// Validate checks every annotation and rejects duplicate ids or z indices.
func (d Document) Validate() error {
	ids := make(map[string]struct{}, len(d.Annotations))
	zs := make(map[int]struct{}, len(d.Annotations))
	for _, a := range d.Annotations {
		if err := a.Validate(); err != nil {
			return err
		}
		if _, dup := ids[a.ID]; dup {
			return fmt.Errorf("duplicate annotation id %s", a.ID)
		}
		if _, dup := zs[a.ZIndex]; dup {
			return fmt.Errorf("duplicate z index %d", a.ZIndex)
		}
		ids[a.ID] = struct{}{}
		zs[a.ZIndex] = struct{}{}
	}
	return nil
}

// Format selects the document encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// Ext returns the file extension for the format, without the dot.
func (f Format) Ext() string { return f.String() }

// ParseFormat parses "json", "yaml" or "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return FormatJSON, fmt.Errorf("unknown document format %q", s)
}

// FormatForPath picks the format from a file extension, defaulting to JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Encode writes d to w.
func Encode(w io.Writer, d Document, f Format) error {
	switch f {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	}
}

// Decode reads and validates a document.
func Decode(r io.Reader, f Format) (Document, error) {
	var d Document
	switch f {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&d); err != nil {
			return Document{}, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		if err := json.NewDecoder(r).Decode(&d); err != nil {
			return Document{}, fmt.Errorf("decode json: %w", err)
		}
	}
	if err := d.Validate(); err != nil {
		return Document{}, fmt.Errorf("invalid document: %w", err)
	}
	return d, nil
}
