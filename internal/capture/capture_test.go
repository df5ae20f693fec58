package capture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"
)

type fakeBackend struct {
	monitors   []MonitorInfo
	windows    []WindowInfo
	screen     *image.RGBA
	windowsErr error
	captureErr error
}

func (f fakeBackend) ListMonitors(context.Context) ([]MonitorInfo, error) {
	return f.monitors, nil
}

func (f fakeBackend) ListWindows(context.Context) ([]WindowInfo, error) {
	if f.windowsErr != nil {
		return nil, f.windowsErr
	}
	return f.windows, nil
}

func (f fakeBackend) CaptureScreen(context.Context) (*image.RGBA, error) {
	if f.screen == nil {
		return nil, errors.New("no screen")
	}
	return f.screen, nil
}

func (f fakeBackend) CaptureWindowImage(context.Context, uint32) (*image.RGBA, error) {
	if f.captureErr != nil {
		return nil, f.captureErr
	}
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

func useBackend(t *testing.T, b platformBackend) {
	t.Helper()
	prev := backend
	backend = b
	t.Cleanup(func() { backend = prev })
}

func testScreen() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for y := 0; y < 100; y++ {
		for x := 100; x < 200; x++ {
			img.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	return img
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		ref  string
		want Target
		err  bool
	}{
		{"x11:", Target{Kind: Screen}, false},
		{"x11:screen", Target{Kind: Screen}, false},
		{"x11:monitor:HDMI", Target{Kind: Monitor, Selector: "HDMI"}, false},
		{"x11:window:id:0x2a", Target{Kind: Window, Selector: "id:0x2a"}, false},
		{"x11:tablet", Target{}, true},
		{"file:///x.png", Target{}, true},
	}
	for _, tc := range tests {
		got, err := ParseTarget(tc.ref)
		if (err != nil) != tc.err {
			t.Fatalf("ParseTarget(%q) err = %v", tc.ref, err)
		}
		if got != tc.want {
			t.Fatalf("ParseTarget(%q) = %+v, want %+v", tc.ref, got, tc.want)
		}
	}
}

func TestCaptureMonitorCrops(t *testing.T) {
	useBackend(t, fakeBackend{
		monitors: []MonitorInfo{
			{Index: 0, Name: "eDP-1", Rect: image.Rect(0, 0, 100, 100), Primary: true},
			{Index: 1, Name: "HDMI-1", Rect: image.Rect(100, 0, 200, 100)},
		},
		screen: testScreen(),
	})
	img, err := Capture(context.Background(), Target{Kind: Monitor, Selector: "hdmi"})
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 100, 100) {
		t.Fatalf("bounds %v", img.Bounds())
	}
	if got := img.RGBAAt(0, 0); got.B != 255 {
		t.Fatalf("expected the HDMI half, got %v", got)
	}
}

func TestCaptureWindowListError(t *testing.T) {
	windowsErr := errors.New("windows unavailable")
	useBackend(t, fakeBackend{windowsErr: windowsErr})

	_, _, err := CaptureWindow(context.Background(), "foo")
	if !errors.Is(err, windowsErr) {
		t.Fatalf("expected wrapped windows error, got %v", err)
	}
	if want := `capture window "foo"`; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected selector context, got %v", err)
	}
}

func TestCaptureWindowFallsBackToCrop(t *testing.T) {
	useBackend(t, fakeBackend{
		windows:    []WindowInfo{{ID: 7, Title: "Inventory", Rect: image.Rect(150, 10, 190, 30)}},
		screen:     testScreen(),
		captureErr: errors.New("BadMatch"),
	})
	img, info, err := CaptureWindow(context.Background(), "inventory")
	if err != nil {
		t.Fatalf("CaptureWindow: %v", err)
	}
	if info.ID != 7 || img.Bounds().Dx() != 40 || img.Bounds().Dy() != 20 {
		t.Fatalf("info %+v bounds %v", info, img.Bounds())
	}
}

func TestSelectWindow(t *testing.T) {
	windows := []WindowInfo{
		{Index: 0, ID: 0x10, Title: "Terminal", Class: "XTerm", PID: 100},
		{Index: 1, ID: 0x20, Title: "Photos", Class: "Eog", Executable: "eog", PID: 200, Active: true},
	}
	tests := map[string]uint32{
		"":          0x20,
		"active":    0x20,
		"0":         0x10,
		"index:1":   0x20,
		"id:16":     0x10,
		"0x20":      0x20,
		"pid:100":   0x10,
		"class:xte": 0x10,
		"phot":      0x20,
	}
	for sel, want := range tests {
		got, err := SelectWindow(sel, windows)
		if err != nil {
			t.Fatalf("SelectWindow(%q): %v", sel, err)
		}
		if got.ID != want {
			t.Fatalf("SelectWindow(%q) = 0x%x, want 0x%x", sel, got.ID, want)
		}
	}
	for _, sel := range []string{"index:9", "pid:x", "0xzz", "nothing"} {
		if _, err := SelectWindow(sel, windows); err == nil {
			t.Fatalf("SelectWindow(%q) should fail", sel)
		}
	}
}

func TestFindMonitor(t *testing.T) {
	monitors := []MonitorInfo{
		{Index: 0, Name: "DP-1"},
		{Index: 1, Name: "HDMI-1", Primary: true},
	}
	for sel, want := range map[string]int{"": 1, "primary": 1, "#0": 0, "dp": 0} {
		got, err := FindMonitor(monitors, sel)
		if err != nil || got.Index != want {
			t.Fatalf("FindMonitor(%q) = %+v, %v", sel, got, err)
		}
	}
	if _, err := FindMonitor(monitors, "5"); err == nil {
		t.Fatal("expected out of range error")
	}
	if _, err := FindMonitor(nil, ""); !errors.Is(err, errNoMonitors) {
		t.Fatalf("expected errNoMonitors, got %v", err)
	}
}
