package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	_ "modernc.org/sqlite"

	"github.com/example/markup/internal/annotation"
	"github.com/example/markup/internal/tracing"
)

// SQLiteStore keeps documents in two tables: one row per document and one
// row per annotation, the annotation itself stored as JSON.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and migrates it.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open annotation db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate annotation db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			id       TEXT PRIMARY KEY,
			source   TEXT NOT NULL,
			width    INTEGER NOT NULL,
			height   INTEGER NOT NULL,
			saved_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS documents_source ON documents (source, saved_at);
		CREATE TABLE IF NOT EXISTS annotations (
			id          TEXT NOT NULL,
			document_id TEXT NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
			kind        TEXT NOT NULL,
			z_index     INTEGER NOT NULL,
			data        TEXT NOT NULL,
			PRIMARY KEY (document_id, id)
		);
		CREATE INDEX IF NOT EXISTS annotations_document ON annotations (document_id, z_index);
	`)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save writes doc, replacing any earlier revision with the same id.
func (s *SQLiteStore) Save(ctx context.Context, doc annotation.Document) (err error) {
	ctx, span := tracing.StartSpan(ctx, "store.sqlite.save",
		attribute.String("document.id", doc.ID),
		attribute.Int("annotations", len(doc.Annotations)),
	)
	defer func() { tracing.End(span, err) }()

	if err := doc.Validate(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, source, width, height, saved_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			source = excluded.source, width = excluded.width,
			height = excluded.height, saved_at = excluded.saved_at`,
		doc.ID, doc.Source, doc.Width, doc.Height, doc.SavedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM annotations WHERE document_id = ?", doc.ID); err != nil {
		return fmt.Errorf("clear annotations: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO annotations (id, document_id, kind, z_index, data) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, a := range doc.Annotations {
		data, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("marshal annotation %s: %w", a.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, a.ID, doc.ID, a.Kind.String(), a.ZIndex, string(data)); err != nil {
			return fmt.Errorf("insert annotation %s: %w", a.ID, err)
		}
	}
	return tx.Commit()
}

// Load returns the document with the given id.
func (s *SQLiteStore) Load(ctx context.Context, id string) (annotation.Document, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, source, width, height, saved_at FROM documents WHERE id = ?", id)
	return s.scan(ctx, row)
}

func (s *SQLiteStore) Latest(ctx context.Context, source string) (annotation.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source, width, height, saved_at FROM documents
		WHERE source = ? ORDER BY saved_at DESC, rowid DESC LIMIT 1`, source)
	return s.scan(ctx, row)
}

// Summary is a document without its annotations.
type Summary struct {
	ID          string
	Source      string
	SavedAt     time.Time
	Annotations int
}

// List returns every stored document, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.source, d.saved_at, COUNT(a.id) FROM documents d
		LEFT JOIN annotations a ON a.document_id = d.id
		GROUP BY d.id ORDER BY d.saved_at DESC, d.rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var at int64
		if err := rows.Scan(&sum.ID, &sum.Source, &at, &sum.Annotations); err != nil {
			return nil, err
		}
		sum.SavedAt = time.Unix(0, at).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) scan(ctx context.Context, row *sql.Row) (annotation.Document, error) {
	var doc annotation.Document
	var at int64
	err := row.Scan(&doc.ID, &doc.Source, &doc.Width, &doc.Height, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return annotation.Document{}, ErrNotFound
	}
	if err != nil {
		return annotation.Document{}, err
	}
	doc.SavedAt = time.Unix(0, at).UTC()

	rows, err := s.db.QueryContext(ctx,
		"SELECT data FROM annotations WHERE document_id = ? ORDER BY z_index", doc.ID)
	if err != nil {
		return annotation.Document{}, err
	}
	defer rows.Close()
	doc.Annotations = []annotation.Annotation{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return annotation.Document{}, err
		}
		var a annotation.Annotation
		if err := json.Unmarshal([]byte(data), &a); err != nil {
			return annotation.Document{}, fmt.Errorf("decode annotation: %w", err)
		}
		doc.Annotations = append(doc.Annotations, a)
	}
	return doc, rows.Err()
}
