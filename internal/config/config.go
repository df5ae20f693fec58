// Package config reads and writes the markup rc file.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/example/markup/internal/theme"
)

// Log selects the slog handler.
type Log struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	Output string // stderr, stdout or a file path
}

// Editor holds the initial tool settings.
type Editor struct {
	Tool        string
	Color       string
	StrokeWidth int
	FontSize    float64
	Opacity     float64
}

// Export controls how flattened images are produced and delivered.
type Export struct {
	Format    string // png or pdf
	Backend   string // raster or vector
	Clipboard bool   // also copy the flattened image to the clipboard
	Shadow    bool   // add a drop shadow around exported images
}

// Store selects where annotation records are saved.
type Store struct {
	Kind   string // file or sqlite
	Path   string // directory for file, database path for sqlite
	Format string // json or yaml, file store only
}

// Notify holds notification settings.
type Notify struct {
	Save   bool
	Export bool
	Copy   bool
}

// Trace configures OpenTelemetry tracing.
type Trace struct {
	Enabled bool
	Output  string // stdout, stderr or a file path
}

// Config holds the application configuration.
type Config struct {
	Theme   string
	SaveDir string
	Log     Log
	Editor  Editor
	Export  Export
	Store   Store
	Notify  Notify
	Trace   Trace
	Themes  map[string]*theme.Theme
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		Log: Log{Level: "info", Format: "text", Output: "stderr"},
		Editor: Editor{
			Tool:        "arrow",
			Color:       "#FF0000",
			StrokeWidth: 4,
			FontSize:    20,
			Opacity:     1,
		},
		Export: Export{Format: "png", Backend: "raster"},
		Store:  Store{Kind: "file", Format: "json"},
		Trace:  Trace{Output: "stderr"},
		Themes: make(map[string]*theme.Theme),
	}
}

// String returns the configuration in rc format. Parsing the result yields
// an equal configuration.
func (c *Config) String() string {
	var sb strings.Builder

	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.SaveDir != "" {
		fmt.Fprintf(&sb, "save_dir = %s\n", c.SaveDir)
	}
	fmt.Fprintf(&sb, "log_level = %s\n", c.Log.Level)
	fmt.Fprintf(&sb, "log_format = %s\n", c.Log.Format)
	fmt.Fprintf(&sb, "log_output = %s\n", c.Log.Output)
	sb.WriteString("\n")

	sb.WriteString("[editor]\n")
	fmt.Fprintf(&sb, "tool = %s\n", c.Editor.Tool)
	fmt.Fprintf(&sb, "color = %s\n", c.Editor.Color)
	fmt.Fprintf(&sb, "stroke_width = %d\n", c.Editor.StrokeWidth)
	fmt.Fprintf(&sb, "font_size = %g\n", c.Editor.FontSize)
	fmt.Fprintf(&sb, "opacity = %g\n", c.Editor.Opacity)
	sb.WriteString("\n")

	sb.WriteString("[export]\n")
	fmt.Fprintf(&sb, "format = %s\n", c.Export.Format)
	fmt.Fprintf(&sb, "backend = %s\n", c.Export.Backend)
	fmt.Fprintf(&sb, "clipboard = %v\n", c.Export.Clipboard)
	fmt.Fprintf(&sb, "shadow = %v\n", c.Export.Shadow)
	sb.WriteString("\n")

	sb.WriteString("[store]\n")
	fmt.Fprintf(&sb, "kind = %s\n", c.Store.Kind)
	if c.Store.Path != "" {
		fmt.Fprintf(&sb, "path = %s\n", c.Store.Path)
	}
	fmt.Fprintf(&sb, "format = %s\n", c.Store.Format)
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "export = %v\n", c.Notify.Export)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	sb.WriteString("\n")

	sb.WriteString("[trace]\n")
	fmt.Fprintf(&sb, "enabled = %v\n", c.Trace.Enabled)
	fmt.Fprintf(&sb, "output = %s\n", c.Trace.Output)
	sb.WriteString("\n")

	names := make([]string, 0, len(c.Themes))
	for name := range c.Themes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		for _, f := range t.Fields() {
			fmt.Fprintf(&sb, "%s: %s\n", f.Key, theme.Hex(f.Color))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
