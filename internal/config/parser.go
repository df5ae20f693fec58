package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/markup/internal/theme"
)

// Parse reads configuration in rc format: "key = value" or "key: value"
// lines grouped under [section] headers. Unknown keys are ignored.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var section string
	var current *theme.Theme

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			current = nil
			if name, ok := strings.CutPrefix(section, "theme."); ok {
				current = theme.Default()
				current.Name = name
				cfg.Themes[name] = current
			}
			continue
		}

		key, value, ok := splitLine(line)
		if !ok {
			continue
		}

		var err error
		switch {
		case current != nil:
			err = current.Set(key, value)
		case section == "":
			err = setRoot(cfg, key, value)
		case section == "editor":
			err = setEditor(&cfg.Editor, key, value)
		case section == "export":
			err = setExport(&cfg.Export, key, value)
		case section == "store":
			err = setStore(&cfg.Store, key, value)
		case section == "notify":
			err = setNotify(&cfg.Notify, key, value)
		case section == "trace":
			err = setTrace(&cfg.Trace, key, value)
		}
		if err != nil {
			if section == "" {
				return nil, fmt.Errorf("error in root section: %w", err)
			}
			return nil, fmt.Errorf("error in section [%s]: %w", section, err)
		}
	}

	return cfg, scanner.Err()
}

func splitLine(line string) (key, value string, ok bool) {
	sep := "="
	if !strings.Contains(line, "=") {
		sep = ":"
	}
	key, value, ok = strings.Cut(line, sep)
	if !ok {
		return "", "", false
	}
	value = strings.TrimSpace(value)
	if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
		value = value[1 : len(value)-1]
	}
	return strings.ToLower(strings.TrimSpace(key)), value, true
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	return b, nil
}

func setRoot(cfg *Config, key, value string) error {
	switch key {
	case "theme":
		cfg.Theme = value
	case "save_dir":
		cfg.SaveDir = value
	case "log_level":
		cfg.Log.Level = value
	case "log_format":
		cfg.Log.Format = value
	case "log_output":
		cfg.Log.Output = value
	}
	return nil
}

func setEditor(e *Editor, key, value string) error {
	switch key {
	case "tool":
		e.Tool = value
	case "color":
		e.Color = value
	case "stroke_width":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for key %s: %w", key, err)
		}
		e.StrokeWidth = n
	case "font_size", "opacity":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number for key %s: %w", key, err)
		}
		if key == "font_size" {
			e.FontSize = f
		} else {
			e.Opacity = f
		}
	}
	return nil
}

func setExport(e *Export, key, value string) (err error) {
	switch key {
	case "format":
		e.Format = value
	case "backend":
		e.Backend = value
	case "clipboard":
		e.Clipboard, err = parseBool(key, value)
	case "shadow":
		e.Shadow, err = parseBool(key, value)
	}
	return err
}

func setStore(s *Store, key, value string) error {
	switch key {
	case "kind":
		s.Kind = value
	case "path":
		s.Path = value
	case "format":
		s.Format = value
	}
	return nil
}

func setNotify(n *Notify, key, value string) (err error) {
	switch key {
	case "save":
		n.Save, err = parseBool(key, value)
	case "export":
		n.Export, err = parseBool(key, value)
	case "copy":
		n.Copy, err = parseBool(key, value)
	}
	return err
}

func setTrace(t *Trace, key, value string) (err error) {
	switch key {
	case "enabled":
		t.Enabled, err = parseBool(key, value)
	case "output":
		t.Output = value
	}
	return err
}
