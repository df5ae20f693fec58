package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := `
theme = my_custom_theme
save_dir = /tmp/shots
log_level = debug

[editor]
tool = freehand
color = blue
stroke_width = 6
font_size = 28
opacity = 0.5

[export]
format = pdf
backend = vector
clipboard = true

[store]
kind = sqlite
path = /tmp/markup.db

[notify]
save = false
copy = true

[theme.my_custom_theme]
Background = #111111
Foreground = #FFFFFF
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Theme != "my_custom_theme" {
		t.Errorf("Expected theme 'my_custom_theme', got '%s'", cfg.Theme)
	}
	if cfg.SaveDir != "/tmp/shots" {
		t.Errorf("Expected save_dir '/tmp/shots', got '%s'", cfg.SaveDir)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("Unexpected log section: %+v", cfg.Log)
	}
	want := Editor{Tool: "freehand", Color: "blue", StrokeWidth: 6, FontSize: 28, Opacity: 0.5}
	if cfg.Editor != want {
		t.Errorf("Editor = %+v, want %+v", cfg.Editor, want)
	}
	if cfg.Export.Format != "pdf" || cfg.Export.Backend != "vector" || !cfg.Export.Clipboard {
		t.Errorf("Unexpected export section: %+v", cfg.Export)
	}
	if cfg.Store.Kind != "sqlite" || cfg.Store.Path != "/tmp/markup.db" || cfg.Store.Format != "json" {
		t.Errorf("Unexpected store section: %+v", cfg.Store)
	}
	if cfg.Notify.Save || !cfg.Notify.Copy || cfg.Notify.Export {
		t.Errorf("Unexpected notify section: %+v", cfg.Notify)
	}

	theme, ok := cfg.Themes["my_custom_theme"]
	if !ok {
		t.Fatal("Expected theme 'my_custom_theme' to be loaded")
	}
	if theme.Background.R != 0x11 || theme.Background.G != 0x11 || theme.Background.B != 0x11 {
		t.Errorf("Unexpected Background color: %+v", theme.Background)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad width", "[editor]\nstroke_width = wide\n"},
		{"bad bool", "[notify]\nsave = maybe\n"},
		{"bad theme colour", "[theme.x]\nBackground = #12\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.input)); err == nil {
				t.Fatalf("expected error for %q", tt.input)
			}
		})
	}
}

func TestCircular(t *testing.T) {
	input := `theme = dark
save_dir = /home/user/shots
log_format = json

[editor]
color = #00FF0080
stroke_width = 3

[export]
shadow = true

[store]
kind = file
format = yaml

[notify]
save = true
export = true

[trace]
enabled = true
output = /tmp/trace.json

[theme.custom]
Name = custom
Background = #000000
Foreground = #FFFFFF
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Initial parse failed: %v", err)
	}

	generated := cfg.String()

	cfg2, err := Parse(strings.NewReader(generated))
	if err != nil {
		t.Fatalf("Circular parse failed: %v\n%s", err, generated)
	}

	if cfg.Theme != cfg2.Theme || cfg.SaveDir != cfg2.SaveDir {
		t.Errorf("Root mismatch: %q/%q vs %q/%q", cfg.Theme, cfg.SaveDir, cfg2.Theme, cfg2.SaveDir)
	}
	if cfg.Log != cfg2.Log {
		t.Errorf("Log mismatch: %+v vs %+v", cfg.Log, cfg2.Log)
	}
	if cfg.Editor != cfg2.Editor {
		t.Errorf("Editor mismatch: %+v vs %+v", cfg.Editor, cfg2.Editor)
	}
	if cfg.Export != cfg2.Export {
		t.Errorf("Export mismatch: %+v vs %+v", cfg.Export, cfg2.Export)
	}
	if cfg.Store != cfg2.Store {
		t.Errorf("Store mismatch: %+v vs %+v", cfg.Store, cfg2.Store)
	}
	if cfg.Notify != cfg2.Notify {
		t.Errorf("Notify mismatch: %+v vs %+v", cfg.Notify, cfg2.Notify)
	}
	if cfg.Trace != cfg2.Trace {
		t.Errorf("Trace mismatch: %+v vs %+v", cfg.Trace, cfg2.Trace)
	}

	t1 := cfg.Themes["custom"]
	t2 := cfg2.Themes["custom"]
	if t1 == nil || t2 == nil {
		t.Fatalf("Custom theme missing in one config")
	}
	if *t1 != *t2 {
		t.Errorf("Theme mismatch: %+v vs %+v", t1, t2)
	}
}

func TestLoaderOverrideAndSave(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "custom.rc")

	l := NewLoader("v1.0.0", path)
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load without file: %v", err)
	}
	if cfg.Editor.StrokeWidth != 4 {
		t.Fatalf("expected defaults, got %+v", cfg.Editor)
	}

	cfg.Theme = "dark"
	written, err := l.Save(cfg)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if written != path {
		t.Fatalf("saved to %s, want %s", written, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}

	again, err := l.Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Theme != "dark" {
		t.Fatalf("theme %q", again.Theme)
	}
}

func TestLoaderHomeFallback(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	l := NewLoader("v1.0.0", "")
	if got := l.ConfigPath(); got != "" {
		t.Fatalf("expected no config, got %s", got)
	}
	rc := filepath.Join(dir, ".config", "markup", "markup.rc")
	if err := os.MkdirAll(filepath.Dir(rc), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(rc, []byte("theme = light\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := l.ConfigPath(); got != rc {
		t.Fatalf("ConfigPath = %s, want %s", got, rc)
	}
	if got := l.DefaultPath(); got != filepath.Join(dir, ".config", "markup", "config.rc") {
		t.Fatalf("DefaultPath = %s", got)
	}
}
