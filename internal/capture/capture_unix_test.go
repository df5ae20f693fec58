//go:build linux || freebsd || openbsd || netbsd || dragonfly

package capture

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/jezek/xgb/xproto"
)

func TestXImageToRGBA(t *testing.T) {
	setup := &xproto.SetupInfo{PixmapFormats: []xproto.Format{{Depth: 24, BitsPerPixel: 32}}}
	reply := &xproto.GetImageReply{
		Depth: 24,
		Data:  []byte{1, 2, 3, 0, 4, 5, 6, 0},
	}
	img, err := xImageToRGBA(setup, reply, 2, 1, "test")
	if err != nil {
		t.Fatalf("xImageToRGBA: %v", err)
	}
	want := []byte{3, 2, 1, 0xff, 6, 5, 4, 0xff}
	for i, b := range want {
		if img.Pix[i] != b {
			t.Fatalf("pix[%d] = %d, want %d (%v)", i, img.Pix[i], b, img.Pix)
		}
	}
	if _, err := xImageToRGBA(setup, &xproto.GetImageReply{Depth: 8, Data: []byte{1}}, 1, 1, "test"); err == nil {
		t.Fatal("expected unsupported depth error")
	}
}

func TestPortalResult(t *testing.T) {
	ok := map[string]dbus.Variant{"uri": dbus.MakeVariant("file:///tmp/Screenshot%201.png")}
	path, err := portalResult([]any{uint32(0), ok})
	if err != nil {
		t.Fatalf("portalResult: %v", err)
	}
	if path != "/tmp/Screenshot 1.png" {
		t.Fatalf("path = %q", path)
	}
	if _, err := portalResult([]any{uint32(1), ok}); err == nil {
		t.Fatal("expected denied error")
	}
	if _, err := portalResult([]any{uint32(0), map[string]dbus.Variant{}}); err == nil {
		t.Fatal("expected missing uri error")
	}
}

func TestPortalOptionsToken(t *testing.T) {
	prev := portalHandleToken
	portalHandleToken = func() string { return "fixed" }
	t.Cleanup(func() { portalHandleToken = prev })

	opts := portalOptions()
	if got := opts["handle_token"].Value(); got != "fixed" {
		t.Fatalf("handle_token = %v", got)
	}
	if got := opts["interactive"].Value(); got != false {
		t.Fatalf("interactive = %v", got)
	}
}
