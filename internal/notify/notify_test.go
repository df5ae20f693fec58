package notify

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/markup/internal/platform"
)

type recorder struct {
	sent []platform.Notification
}

func (r *recorder) send(_ context.Context, n platform.Notification) error {
	r.sent = append(r.sent, n)
	return nil
}

func TestDisabledEventsAreSilent(t *testing.T) {
	rec := &recorder{}
	n := New(DefaultPreferences(), nil).WithSender(rec.send)
	n.Save(context.Background(), "shot.png")
	n.Copy(context.Background(), "", nil)
	if len(rec.sent) != 0 {
		t.Fatalf("expected no notifications, got %d", len(rec.sent))
	}
	var nilNotifier *Notifier
	nilNotifier.Save(context.Background(), "x")
}

func TestSaveUsesTemplate(t *testing.T) {
	rec := &recorder{}
	n := New(DefaultPreferences(), nil).WithSender(rec.send)
	n.Enable(EventSave, true)
	n.Save(context.Background(), "shot.png")
	if len(rec.sent) != 1 {
		t.Fatalf("expected one notification, got %d", len(rec.sent))
	}
	got := rec.sent[0]
	if got.Title != "Markup" || got.Body != "Saved annotations for shot.png" {
		t.Fatalf("unexpected notification %+v", got)
	}
}

func TestExportAttachesExistingPNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.png")
	if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	n := New(DefaultPreferences(), nil).WithSender(rec.send)
	n.Enable(EventExport, true)
	n.Export(context.Background(), path)
	if len(rec.sent) != 1 || rec.sent[0].IconPath != path {
		t.Fatalf("expected icon %s, got %+v", path, rec.sent)
	}
}

func TestCopyPreviewIsRemoved(t *testing.T) {
	rec := &recorder{}
	n := New(DefaultPreferences(), nil).WithSender(rec.send)
	n.Enable(EventCopy, true)
	n.Copy(context.Background(), "", image.NewRGBA(image.Rect(0, 0, 2, 2)))
	if len(rec.sent) != 1 {
		t.Fatalf("expected one notification")
	}
	if rec.sent[0].Body != "Copied image to clipboard" {
		t.Fatalf("body %q", rec.sent[0].Body)
	}
	if _, err := os.Stat(rec.sent[0].IconPath); !os.IsNotExist(err) {
		t.Fatalf("preview %s should be removed, stat err %v", rec.sent[0].IconPath, err)
	}
}

func TestLoadPreferencesFromEnv(t *testing.T) {
	t.Setenv("MARKUP_NOTIFY_TITLE", "Warehouse")
	t.Setenv("MARKUP_NOTIFY_EXPORT_TEXT", "Wrote %s")
	prefs := LoadPreferences()
	if prefs.Title != "Warehouse" {
		t.Fatalf("title %q", prefs.Title)
	}
	if prefs.Templates[EventExport] != "Wrote %s" {
		t.Fatalf("export template %q", prefs.Templates[EventExport])
	}
	if prefs.Templates[EventSave] != DefaultPreferences().Templates[EventSave] {
		t.Fatalf("save template should keep its default")
	}
}
