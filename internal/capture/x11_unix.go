//go:build linux || freebsd || openbsd || netbsd || dragonfly

package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xproto"
)

type x11Backend struct{}

func newBackend() platformBackend { return x11Backend{} }

func runningOnWayland() bool {
	if strings.EqualFold(strings.TrimSpace(os.Getenv("XDG_SESSION_TYPE")), "wayland") {
		return true
	}
	return os.Getenv("WAYLAND_DISPLAY") != ""
}

// connect opens an X connection and returns its default screen. The
// connection is closed when ctx ends.
func connect(ctx context.Context) (*xgb.Conn, *xproto.SetupInfo, *xproto.ScreenInfo, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, nil, nil, err
	}
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("connect X server: %w", err)
	}
	stop := context.AfterFunc(ctx, conn.Close)
	closeFn := func() {
		if stop() {
			conn.Close()
		}
	}
	setup := xproto.Setup(conn)
	if setup == nil {
		closeFn()
		return nil, nil, nil, nil, fmt.Errorf("xproto setup unavailable")
	}
	screen := setup.DefaultScreen(conn)
	if screen == nil {
		closeFn()
		return nil, nil, nil, nil, fmt.Errorf("xproto screen unavailable")
	}
	return conn, setup, screen, closeFn, nil
}

func (x11Backend) ListMonitors(ctx context.Context) ([]MonitorInfo, error) {
	conn, _, screen, done, err := connect(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	monitors, err := fetchMonitors(conn, screen.Root)
	if err != nil {
		return nil, err
	}
	if len(monitors) == 0 {
		return nil, errNoMonitors
	}
	return monitors, nil
}

func (x11Backend) ListWindows(ctx context.Context) ([]WindowInfo, error) {
	conn, _, screen, done, err := connect(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	monitors, _ := fetchMonitors(conn, screen.Root)
	activeID, _ := fetchActiveWindow(conn, screen.Root)
	windows, err := fetchWindows(conn, screen.Root, monitors, activeID)
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return nil, errNoWindows
	}
	return windows, nil
}

// CaptureScreen reads the root window. On Wayland sessions, where the root
// window is usually black, the desktop portal is tried first.
func (x11Backend) CaptureScreen(ctx context.Context) (*image.RGBA, error) {
	var portalErr error
	if runningOnWayland() {
		img, err := portalScreenshot(ctx)
		if err == nil {
			return img, nil
		}
		portalErr = err
	}
	conn, setup, screen, done, err := connect(ctx)
	if err != nil {
		if portalErr != nil {
			return nil, fmt.Errorf("portal: %v; x11: %w", portalErr, err)
		}
		return nil, err
	}
	defer done()
	return getImage(conn, setup, xproto.Drawable(screen.Root), screen.WidthInPixels, screen.HeightInPixels, "screen")
}

func (x11Backend) CaptureWindowImage(ctx context.Context, id uint32) (*image.RGBA, error) {
	conn, setup, _, done, err := connect(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	geo, err := xproto.GetGeometry(conn, xproto.Drawable(id)).Reply()
	if err != nil {
		return nil, fmt.Errorf("window geometry: %w", err)
	}
	return getImage(conn, setup, xproto.Drawable(id), geo.Width, geo.Height, "window")
}

func getImage(conn *xgb.Conn, setup *xproto.SetupInfo, d xproto.Drawable, w, h uint16, kind string) (*image.RGBA, error) {
	reply, err := xproto.GetImage(conn, xproto.ImageFormatZPixmap, d, 0, 0, w, h, ^uint32(0)).Reply()
	if err != nil {
		return nil, fmt.Errorf("%s pixels: %w", kind, err)
	}
	return xImageToRGBA(setup, reply, int(w), int(h), kind)
}

func fetchMonitors(conn *xgb.Conn, root xproto.Window) ([]MonitorInfo, error) {
	if err := randr.Init(conn); err != nil {
		return nil, fmt.Errorf("init randr: %w", err)
	}
	res, err := randr.GetScreenResources(conn, root).Reply()
	if err != nil {
		return nil, fmt.Errorf("randr screen resources: %w", err)
	}
	primaryOutput := randr.Output(0)
	if primary, err := randr.GetOutputPrimary(conn, root).Reply(); err == nil {
		primaryOutput = primary.Output
	}
	monitors := make([]MonitorInfo, 0, len(res.Outputs))
	for _, output := range res.Outputs {
		info, err := randr.GetOutputInfo(conn, output, res.ConfigTimestamp).Reply()
		if err != nil || info.Connection != randr.ConnectionConnected || info.Crtc == 0 {
			continue
		}
		crtc, err := randr.GetCrtcInfo(conn, info.Crtc, res.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		monitors = append(monitors, MonitorInfo{
			Index:   len(monitors),
			Name:    strings.TrimSpace(string(info.Name)),
			Rect:    image.Rect(int(crtc.X), int(crtc.Y), int(crtc.X)+int(crtc.Width), int(crtc.Y)+int(crtc.Height)),
			Primary: output == primaryOutput,
		})
	}
	return monitors, nil
}

func fetchActiveWindow(conn *xgb.Conn, root xproto.Window) (uint32, error) {
	atom, err := internAtom(conn, "_NET_ACTIVE_WINDOW")
	if err != nil {
		return 0, err
	}
	reply, err := xproto.GetProperty(conn, false, root, atom, xproto.AtomWindow, 0, 1).Reply()
	if err != nil {
		return 0, err
	}
	if reply.Format != 32 || reply.ValueLen == 0 {
		return 0, fmt.Errorf("active window unavailable")
	}
	return xgb.Get32(reply.Value), nil
}

func fetchWindows(conn *xgb.Conn, root xproto.Window, monitors []MonitorInfo, activeID uint32) ([]WindowInfo, error) {
	var reply *xproto.GetPropertyReply
	for _, name := range []string{"_NET_CLIENT_LIST_STACKING", "_NET_CLIENT_LIST"} {
		atom, err := internAtom(conn, name)
		if err != nil {
			return nil, err
		}
		reply, err = xproto.GetProperty(conn, false, root, atom, xproto.AtomWindow, 0, 1<<16).Reply()
		if err == nil && reply.Format == 32 && reply.ValueLen > 0 {
			break
		}
		reply = nil
	}
	if reply == nil {
		return nil, nil
	}

	// The stacking list is bottom to top; report topmost first.
	windows := make([]WindowInfo, 0, reply.ValueLen)
	for idx := int(reply.ValueLen) - 1; idx >= 0; idx-- {
		win := xproto.Window(xgb.Get32(reply.Value[idx*4:]))
		info, err := describeWindow(conn, root, win)
		if err != nil {
			continue
		}
		info.Index = len(windows)
		info.Active = info.ID == activeID
		info.Monitor = monitorForRect(info.Rect, monitors)
		windows = append(windows, info)
	}
	return windows, nil
}

func describeWindow(conn *xgb.Conn, root, win xproto.Window) (WindowInfo, error) {
	rect, err := windowRect(conn, root, win)
	if err != nil {
		return WindowInfo{}, err
	}
	title := readProperty(conn, win, "_NET_WM_NAME", "UTF8_STRING")
	if title == "" {
		title = readProperty(conn, win, "WM_NAME", "")
	}
	class, instance := readClass(conn, win)
	pid := readPID(conn, win)
	return WindowInfo{
		ID:         uint32(win),
		Title:      title,
		Class:      class,
		Instance:   instance,
		PID:        pid,
		Executable: readExecutable(pid),
		Rect:       rect,
		Monitor:    -1,
	}, nil
}

func windowRect(conn *xgb.Conn, root, win xproto.Window) (image.Rectangle, error) {
	geo, err := xproto.GetGeometry(conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return image.Rectangle{}, err
	}
	trans, err := xproto.TranslateCoordinates(conn, win, root, 0, 0).Reply()
	if err != nil {
		return image.Rectangle{}, err
	}
	bw := int(geo.BorderWidth)
	x := int(trans.DstX) - bw
	y := int(trans.DstY) - bw
	return image.Rect(x, y, x+int(geo.Width)+2*bw, y+int(geo.Height)+2*bw), nil
}

func monitorForRect(rect image.Rectangle, monitors []MonitorInfo) int {
	if len(monitors) == 0 {
		return -1
	}
	center := image.Pt(rect.Min.X+rect.Dx()/2, rect.Min.Y+rect.Dy()/2)
	for _, mon := range monitors {
		if center.In(mon.Rect) {
			return mon.Index
		}
	}
	return monitors[0].Index
}

func internAtom(conn *xgb.Conn, name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(conn, true, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	return reply.Atom, nil
}

// readProperty reads a text property. An empty typeName means STRING.
func readProperty(conn *xgb.Conn, win xproto.Window, name, typeName string) string {
	atom, err := internAtom(conn, name)
	if err != nil {
		return ""
	}
	var typ xproto.Atom = xproto.AtomString
	if typeName != "" {
		if typ, err = internAtom(conn, typeName); err != nil {
			return ""
		}
	}
	reply, err := xproto.GetProperty(conn, false, win, atom, typ, 0, 1<<16).Reply()
	if err != nil || reply.ValueLen == 0 {
		return ""
	}
	return strings.TrimRight(string(reply.Value), "\x00")
}

func readClass(conn *xgb.Conn, win xproto.Window) (class, instance string) {
	raw := readProperty(conn, win, "WM_CLASS", "")
	var vals []string
	for _, p := range bytes.Split([]byte(raw), []byte{0}) {
		if len(p) > 0 {
			vals = append(vals, string(p))
		}
	}
	switch len(vals) {
	case 0:
		return "", ""
	case 1:
		return vals[0], vals[0]
	}
	return vals[1], vals[0]
}

func readPID(conn *xgb.Conn, win xproto.Window) uint32 {
	atom, err := internAtom(conn, "_NET_WM_PID")
	if err != nil {
		return 0
	}
	reply, err := xproto.GetProperty(conn, false, win, atom, xproto.AtomCardinal, 0, 1).Reply()
	if err != nil || reply.Format != 32 || reply.ValueLen == 0 {
		return 0
	}
	return xgb.Get32(reply.Value)
}

func readExecutable(pid uint32) string {
	if pid == 0 {
		return ""
	}
	if data, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid)); err == nil {
		return strings.TrimSpace(string(data))
	}
	if exe, err := os.Readlink(fmt.Sprintf("/proc/%d/exe", pid)); err == nil {
		return filepath.Base(exe)
	}
	return ""
}
