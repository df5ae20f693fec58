package capture

import (
	"fmt"
	"strconv"
	"strings"
)

// FindMonitor resolves a selector: "" or "primary", an index ("1" or "#1"),
// or part of the output name.
func FindMonitor(monitors []MonitorInfo, selector string) (MonitorInfo, error) {
	if len(monitors) == 0 {
		return MonitorInfo{}, errNoMonitors
	}
	lower := strings.ToLower(strings.TrimSpace(selector))
	if lower == "" || lower == "primary" {
		for _, mon := range monitors {
			if mon.Primary {
				return mon, nil
			}
		}
		return monitors[0], nil
	}
	lower = strings.TrimPrefix(lower, "#")
	if idx, err := strconv.Atoi(lower); err == nil {
		if idx < 0 || idx >= len(monitors) {
			return MonitorInfo{}, fmt.Errorf("monitor index %d out of range", idx)
		}
		return monitors[idx], nil
	}
	for _, mon := range monitors {
		if strings.Contains(strings.ToLower(mon.Name), lower) {
			return mon, nil
		}
	}
	return MonitorInfo{}, fmt.Errorf("monitor %q not found", selector)
}

// SelectWindow matches selector against windows. Accepted forms: "" or
// "active", "index:N" or "N", "id:ID" or a 0x-prefixed id, "pid:N",
// "class:NAME", or a substring of the title, executable or class.
func SelectWindow(selector string, windows []WindowInfo) (WindowInfo, error) {
	if len(windows) == 0 {
		return WindowInfo{}, errNoWindows
	}
	sel := strings.TrimSpace(selector)
	lower := strings.ToLower(sel)

	find := func(match func(WindowInfo) bool, notFound string, args ...any) (WindowInfo, error) {
		for _, win := range windows {
			if match(win) {
				return win, nil
			}
		}
		return WindowInfo{}, fmt.Errorf(notFound, args...)
	}
	byIndex := func(val string) (WindowInfo, error) {
		idx, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return WindowInfo{}, fmt.Errorf("invalid index %q", val)
		}
		if idx < 0 || idx >= len(windows) {
			return WindowInfo{}, fmt.Errorf("window index %d out of range", idx)
		}
		return windows[idx], nil
	}
	byID := func(val string) (WindowInfo, error) {
		id, err := parseWindowID(val)
		if err != nil {
			return WindowInfo{}, err
		}
		return find(func(w WindowInfo) bool { return w.ID == id }, "window id 0x%x not found", id)
	}

	switch {
	case lower == "" || lower == "active":
		win, err := find(func(w WindowInfo) bool { return w.Active }, "no active window detected")
		if err != nil && lower == "" {
			return windows[0], nil
		}
		return win, err
	case strings.HasPrefix(lower, "index:"):
		return byIndex(lower[len("index:"):])
	case strings.HasPrefix(lower, "id:"):
		return byID(lower[len("id:"):])
	case strings.HasPrefix(lower, "pid:"):
		val := strings.TrimSpace(lower[len("pid:"):])
		pid, err := strconv.ParseUint(val, 10, 32)
		if err != nil {
			return WindowInfo{}, fmt.Errorf("invalid pid %q", val)
		}
		return find(func(w WindowInfo) bool { return w.PID == uint32(pid) }, "window with pid %d not found", pid)
	case strings.HasPrefix(lower, "class:"):
		needle := strings.TrimSpace(lower[len("class:"):])
		return find(func(w WindowInfo) bool {
			return strings.Contains(strings.ToLower(w.Class), needle) || strings.Contains(strings.ToLower(w.Instance), needle)
		}, "window with class %q not found", needle)
	case strings.HasPrefix(lower, "0x"):
		return byID(lower)
	}
	if _, err := strconv.Atoi(sel); err == nil {
		return byIndex(sel)
	}
	return find(func(w WindowInfo) bool {
		for _, field := range []string{w.Title, w.Executable, w.Class, w.Instance} {
			if strings.Contains(strings.ToLower(field), lower) {
				return true
			}
		}
		return false
	}, "no window matched %q", selector)
}

func parseWindowID(val string) (uint32, error) {
	v := strings.ToLower(strings.TrimSpace(val))
	base := 10
	if strings.HasPrefix(v, "0x") {
		v, base = v[2:], 16
	}
	parsed, err := strconv.ParseUint(v, base, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid window id %q", val)
	}
	return uint32(parsed), nil
}
