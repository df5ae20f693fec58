// Package notify turns editor outcomes into desktop notifications.
package notify

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/markup/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventSave fires when the annotation record has been stored.
	EventSave Event = "save"
	// EventExport fires when the flattened image has been written.
	EventExport Event = "export"
	// EventCopy fires when the flattened image was placed on the clipboard.
	EventCopy Event = "copy"
)

// Events lists every event in a stable order.
func Events() []Event { return []Event{EventSave, EventExport, EventCopy} }

// Preferences holds the notification title and per-event body templates.
// Each template receives one %s: the detail of the event.
type Preferences struct {
	Title     string
	Templates map[Event]string
}

func DefaultPreferences() Preferences {
	return Preferences{
		Title: "Markup",
		Templates: map[Event]string{
			EventSave:   "Saved annotations for %s",
			EventExport: "Exported %s",
			EventCopy:   "Copied %s to clipboard",
		},
	}
}

// LoadPreferences applies MARKUP_NOTIFY_* environment overrides to the
// defaults.
func LoadPreferences() Preferences {
	prefs := DefaultPreferences()
	if v := strings.TrimSpace(os.Getenv("MARKUP_NOTIFY_TITLE")); v != "" {
		prefs.Title = v
	}
	for _, ev := range Events() {
		key := "MARKUP_NOTIFY_" + strings.ToUpper(string(ev)) + "_TEXT"
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			prefs.Templates[ev] = v
		}
	}
	return prefs
}

// SendFunc delivers a notification. It defaults to platform.Notify.
type SendFunc func(ctx context.Context, n platform.Notification) error

// Notifier sends notifications for the events that have been enabled. A nil
// Notifier is valid and sends nothing.
type Notifier struct {
	prefs   Preferences
	enabled map[Event]bool
	send    SendFunc
	logger  *slog.Logger
}

// New returns a notifier with every event disabled.
func New(prefs Preferences, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		prefs:   Preferences{Title: prefs.Title, Templates: maps.Clone(prefs.Templates)},
		enabled: make(map[Event]bool),
		send:    platform.Notify,
		logger:  logger,
	}
}

// WithSender replaces the delivery function.
func (n *Notifier) WithSender(send SendFunc) *Notifier {
	if n != nil && send != nil {
		n.send = send
	}
	return n
}

func (n *Notifier) Enable(ev Event, on bool) {
	if n == nil {
		return
	}
	n.enabled[ev] = on
}

func (n *Notifier) Enabled(ev Event) bool {
	return n != nil && n.enabled[ev]
}

// Save reports a stored annotation record. detail names the image.
func (n *Notifier) Save(ctx context.Context, detail string) {
	n.dispatch(ctx, EventSave, detail, "")
}

// Export reports a written file. The file itself is used as the icon when
// it exists.
func (n *Notifier) Export(ctx context.Context, path string) {
	if !n.Enabled(EventExport) {
		return
	}
	detail, icon := strings.TrimSpace(path), ""
	if abs, err := filepath.Abs(path); err == nil {
		detail = abs
		if _, err := os.Stat(abs); err == nil && strings.EqualFold(filepath.Ext(abs), ".png") {
			icon = abs
		}
	}
	n.dispatch(ctx, EventExport, detail, icon)
}

// Copy reports a clipboard copy, attaching a preview of img when given.
func (n *Notifier) Copy(ctx context.Context, detail string, img image.Image) {
	if !n.Enabled(EventCopy) {
		return
	}
	if strings.TrimSpace(detail) == "" {
		detail = "image"
	}
	icon := ""
	if img != nil {
		path, cleanup, err := writePreview(img)
		if err != nil {
			n.logger.Warn("notification preview", "err", err)
		} else {
			defer cleanup()
			icon = path
		}
	}
	n.dispatch(ctx, EventCopy, detail, icon)
}

func (n *Notifier) dispatch(ctx context.Context, ev Event, detail, icon string) {
	if !n.Enabled(ev) {
		return
	}
	tmpl := strings.TrimSpace(n.prefs.Templates[ev])
	if tmpl == "" {
		return
	}
	body := strings.TrimSpace(fmt.Sprintf(tmpl, strings.TrimSpace(detail)))
	if body == "" {
		return
	}
	if err := n.send(ctx, platform.Notification{Title: n.prefs.Title, Body: body, IconPath: icon}); err != nil {
		n.logger.Warn("notification failed", "event", ev, "err", err)
	}
}

func writePreview(img image.Image) (string, func(), error) {
	f, err := os.CreateTemp("", "markup-preview-*.png")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", nil, err
	}
	return path, func() { _ = os.Remove(path) }, nil
}
