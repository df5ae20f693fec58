package theme

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseKeepsDefaults(t *testing.T) {
	th, err := Parse(strings.NewReader("Name: Custom\nBackground: #112233\n# comment\nbogus line\nUnknown: #000000\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if th.Name != "Custom" {
		t.Errorf("name %q", th.Name)
	}
	if th.Background != (color.RGBA{0x11, 0x22, 0x33, 0xff}) {
		t.Errorf("background %v", th.Background)
	}
	if th.Foreground != Default().Foreground {
		t.Errorf("foreground should keep the default")
	}
}

func TestParseRejectsBadColour(t *testing.T) {
	if _, err := Parse(strings.NewReader("Background: #12")); err == nil {
		t.Fatal("expected an error")
	}
}

func TestSetIsCaseInsensitive(t *testing.T) {
	th := Default()
	if err := th.Set("textcaret", "red"); err != nil {
		t.Fatal(err)
	}
	if th.TextCaret != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("caret %v", th.TextCaret)
	}
}

func TestLoaderOrder(t *testing.T) {
	l := &Loader{ConfigDir: t.TempDir()}
	dark, err := l.Load("dark")
	if err != nil {
		t.Fatalf("builtin: %v", err)
	}
	if dark.Name != "Dark" {
		t.Errorf("builtin name %q", dark.Name)
	}

	path := filepath.Join(l.ConfigDir, "mine.theme")
	if err := os.WriteFile(path, []byte("Name: Mine\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	mine, err := l.Load("mine")
	if err != nil || mine.Name != "Mine" {
		t.Fatalf("config dir theme: %v %v", mine, err)
	}
	direct, err := l.Load(path)
	if err != nil || direct.Name != "Mine" {
		t.Fatalf("path theme: %v %v", direct, err)
	}
	if _, err := l.Load("missing"); err == nil {
		t.Fatal("expected missing theme error")
	}
}

func TestFieldsRoundTrip(t *testing.T) {
	src := Default()
	src.Background = color.RGBA{1, 2, 3, 128}
	var sb strings.Builder
	for _, f := range src.Fields() {
		sb.WriteString(f.Key + ": " + Hex(f.Color) + "\n")
	}
	got, err := Parse(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatal(err)
	}
	if got.Background != src.Background {
		t.Errorf("background %v, want %v", got.Background, src.Background)
	}
	if len(Builtin()) != 2 {
		t.Errorf("builtin themes %v", Builtin())
	}
}
