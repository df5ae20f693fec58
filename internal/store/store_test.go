package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/markup/internal/annotation"
	"github.com/example/markup/internal/config"
	"github.com/example/markup/internal/geom"
)

func testDocument(source string, at time.Time) annotation.Document {
	st := annotation.DefaultStyle()
	arrow := annotation.New(annotation.Arrow, geom.Pt(1, 2), st).Extend(geom.Pt(30, 40))
	arrow.ZIndex = 0
	pen := annotation.New(annotation.Freehand, geom.Pt(5, 5), st).Extend(geom.Pt(6, 7)).Extend(geom.Pt(9, 9))
	pen.ZIndex = 1
	label := annotation.New(annotation.Text, geom.Pt(10, 50), st)
	label.Text = "Aisle 4"
	label.ZIndex = 2
	return annotation.NewDocument(source, 120, 80, annotation.NewCollection(arrow, pen, label), at)
}

func assertSameDocument(t *testing.T, want, got annotation.Document) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Source, got.Source)
	assert.Equal(t, want.Width, got.Width)
	assert.Equal(t, want.Height, got.Height)
	assert.True(t, want.SavedAt.Equal(got.SavedAt), "saved at %v vs %v", want.SavedAt, got.SavedAt)
	assert.True(t, want.Collection().Equal(got.Collection()), "annotations differ:\n%+v\n%+v", want.Annotations, got.Annotations)
}

func TestFileStoreRoundTrip(t *testing.T) {
	for _, f := range []annotation.Format{annotation.FormatJSON, annotation.FormatYAML} {
		t.Run(f.String(), func(t *testing.T) {
			dir := t.TempDir()
			s := &FileStore{Dir: dir, Format: f}
			doc := testDocument("https://example.com/img/shelf.jpg?v=2", time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC))

			require.NoError(t, s.Save(context.Background(), doc))
			path := filepath.Join(dir, "shelf.annotations."+f.Ext())
			assert.Equal(t, path, s.Path(doc.Source))
			_, err := os.Stat(path)
			require.NoError(t, err)

			got, err := s.Latest(context.Background(), doc.Source)
			require.NoError(t, err)
			assertSameDocument(t, doc, got)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, entries, 1, "temporary files must not be left behind")
		})
	}
}

func TestFileStoreMissing(t *testing.T) {
	s := &FileStore{Dir: t.TempDir(), Format: annotation.FormatJSON}
	_, err := s.Latest(context.Background(), "nothing.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBaseName(t *testing.T) {
	tests := map[string]string{
		"/tmp/a/photo.jpeg":            "photo",
		"https://h/x/y.png?size=2#top": "y",
		"clipboard:":                   "",
		"x11:window:0x1c":              "0x1c",
		`C:\shots\z.png`:               "z",
	}
	for in, want := range tests {
		assert.Equal(t, want, baseName(in), in)
	}
}

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "markup.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	doc := testDocument("/photos/bay.png", time.Date(2026, 5, 6, 7, 8, 9, 10, time.UTC))

	if err := s.Save(ctx, doc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertSameDocument(t, doc, got)

	// A second save of the same id replaces the annotation set.
	doc.Annotations = doc.Annotations[:1]
	doc.SavedAt = doc.SavedAt.Add(time.Minute)
	if err := s.Save(ctx, doc); err != nil {
		t.Fatalf("Save revision: %v", err)
	}
	got, err = s.Load(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Load revision: %v", err)
	}
	if len(got.Annotations) != 1 {
		t.Fatalf("annotations = %d, want 1", len(got.Annotations))
	}
}

func TestSQLiteStoreLatest(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 6, 0, 0, 0, 0, time.UTC)

	older := testDocument("/photos/bay.png", base)
	newer := testDocument("/photos/bay.png", base.Add(time.Hour))
	other := testDocument("/photos/dock.png", base.Add(2*time.Hour))
	for _, d := range []annotation.Document{newer, older, other} {
		if err := s.Save(ctx, d); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := s.Latest(ctx, "/photos/bay.png")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.ID != newer.ID {
		t.Errorf("Latest = %s, want %s", got.ID, newer.ID)
	}

	if _, err := s.Latest(ctx, "/photos/none.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Latest missing: err = %v, want ErrNotFound", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 || list[0].ID != other.ID || list[0].Annotations != 3 {
		t.Errorf("List = %+v", list)
	}
}

func TestSQLiteStoreRejectsInvalid(t *testing.T) {
	s := newTestSQLite(t)
	doc := testDocument("/p.png", time.Now())
	doc.Annotations = append(doc.Annotations, doc.Annotations[0])
	if err := s.Save(context.Background(), doc); err == nil {
		t.Fatal("expected duplicate annotation to be rejected")
	}
	if _, err := s.Load(context.Background(), doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("invalid document must not be stored, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	st, err := Open(config.Store{Kind: "file", Format: "yaml"}, dir)
	require.NoError(t, err)
	fs, ok := st.(*FileStore)
	require.True(t, ok)
	assert.Equal(t, dir, fs.Dir)
	assert.Equal(t, annotation.FormatYAML, fs.Format)

	st, err = Open(config.Store{Kind: "sqlite"}, dir)
	require.NoError(t, err)
	defer st.Close()
	_, err = os.Stat(filepath.Join(dir, "markup.db"))
	assert.NoError(t, err)

	_, err = Open(config.Store{Kind: "s3"}, dir)
	assert.Error(t, err)
}
