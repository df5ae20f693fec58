package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/example/markup/internal/annotation"
	"github.com/example/markup/internal/editor"
	"github.com/example/markup/internal/geom"
	"github.com/example/markup/internal/session"
	"github.com/example/markup/internal/source"
	"github.com/example/markup/internal/store"
)

// drawCmd adds one annotation without opening a window. The shape goes
// through the same editor transitions a pointer drag would.
type drawCmd struct {
	*root
	fs          *flag.FlagSet
	source      string
	output      string
	annotations string
	colorSpec   string
	fillSpec    string
	width       int
	opacity     float64
	textSize    float64
	backend     string
	clipboard   bool
	noStore     bool

	kind   annotation.Kind
	points []geom.Point
	text   string
	style  annotation.Style
}

func (d *drawCmd) FlagSet() *flag.FlagSet {
	return d.fs
}

var drawFlagNames = map[string]struct{}{
	"source":      {},
	"output":      {},
	"annotations": {},
	"color":       {},
	"fill":        {},
	"width":       {},
	"opacity":     {},
	"text-size":   {},
	"backend":     {},
	"clipboard":   {},
	"no-store":    {},
}

var drawBoolFlags = map[string]struct{}{
	"clipboard": {},
	"no-store":  {},
}

func parseDrawCmd(args []string, r *root) (*drawCmd, error) {
	fs := flag.NewFlagSet("draw", flag.ExitOnError)
	d := &drawCmd{root: r, fs: fs}
	fs.Usage = usageFunc(d)
	defaults := rootConfig(r).Editor
	fs.StringVar(&d.source, "source", "", "image to annotate: URL, file, clipboard: or x11:...")
	fs.StringVar(&d.output, "output", "", "output file; the extension selects png or pdf")
	fs.StringVar(&d.annotations, "annotations", "", "start from a saved annotation record (json or yaml)")
	fs.StringVar(&d.colorSpec, "color", defaults.Color, "stroke color name or hex value")
	fs.StringVar(&d.fillSpec, "fill", "", "fill color for rectangles and ellipses")
	fs.IntVar(&d.width, "width", defaults.StrokeWidth, "stroke width in pixels")
	fs.Float64Var(&d.opacity, "opacity", defaults.Opacity, "opacity between 0 and 1")
	fs.Float64Var(&d.textSize, "text-size", defaults.FontSize, "text size in pixels")
	fs.StringVar(&d.backend, "backend", "", "render backend (raster or vector)")
	fs.BoolVar(&d.clipboard, "clipboard", false, "also copy the result to the clipboard")
	fs.BoolVar(&d.noStore, "no-store", false, "do not store the annotation record")

	flagArgs, positionals, err := splitDrawArgs(args)
	if err != nil {
		return nil, err
	}
	if err := fs.Parse(flagArgs); err != nil {
		return nil, err
	}
	if len(positionals) < 1 || d.source == "" {
		return nil, &UsageError{of: d}
	}
	d.kind, err = annotation.ParseKind(positionals[0])
	if err != nil {
		return nil, err
	}
	if !d.kind.Drawable() {
		return nil, fmt.Errorf("%s is not a drawing tool", d.kind)
	}
	if d.points, d.text, err = parseShape(d.kind, positionals[1:]); err != nil {
		return nil, err
	}
	if d.output == "" {
		if d.output = defaultOutput(d.source); d.output == "" {
			return nil, fmt.Errorf("output file is required when the source is not a local file")
		}
	}
	if _, err := formatForPath(d.output); err != nil {
		return nil, err
	}

	d.style, err = editorStyle(rootConfig(r).Editor)
	if err != nil {
		return nil, err
	}
	if d.style.Color, err = annotation.ParseColor(d.colorSpec); err != nil {
		return nil, err
	}
	if d.fillSpec != "" {
		fill, err := annotation.ParseColor(d.fillSpec)
		if err != nil {
			return nil, err
		}
		d.style.FillColor = &fill
	}
	if d.opacity < 0 || d.opacity > 1 {
		return nil, fmt.Errorf("opacity must be between 0 and 1")
	}
	if d.textSize <= 0 {
		return nil, fmt.Errorf("text-size must be positive")
	}
	d.style.StrokeWidth = annotation.ClampStrokeWidth(d.width)
	d.style.Opacity = d.opacity
	d.style.FontSize = d.textSize
	return d, nil
}

// parseShape reads the coordinates for kind: two corners for boxes and
// lines, at least two points for freehand and a point plus words for text.
func parseShape(kind annotation.Kind, args []string) ([]geom.Point, string, error) {
	switch kind {
	case annotation.Text:
		if len(args) < 3 {
			return nil, "", fmt.Errorf("text requires x y and content")
		}
		pts, err := expectPoints(args[:2], kind)
		if err != nil {
			return nil, "", err
		}
		text := strings.Join(args[2:], " ")
		if strings.TrimSpace(text) == "" {
			return nil, "", fmt.Errorf("text content cannot be empty")
		}
		return pts, text, nil
	case annotation.Freehand:
		if len(args) < 4 || len(args)%2 != 0 {
			return nil, "", fmt.Errorf("%s requires at least two x y pairs", kind)
		}
		pts, err := expectPoints(args, kind)
		return pts, "", err
	}
	if len(args) != 4 {
		return nil, "", fmt.Errorf("%s requires x0 y0 x1 y1", kind)
	}
	pts, err := expectPoints(args, kind)
	return pts, "", err
}

func expectPoints(args []string, kind annotation.Kind) ([]geom.Point, error) {
	pts := make([]geom.Point, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		x, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid coordinate %q", kind, args[i])
		}
		y, err := strconv.ParseFloat(args[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid coordinate %q", kind, args[i+1])
		}
		pts = append(pts, geom.Pt(x, y))
	}
	return pts, nil
}

// defaultOutput names "<stem>-annotated.png" beside a local source file.
func defaultOutput(ref string) string {
	path, ok := source.LocalPath(ref)
	if !ok {
		return ""
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-annotated.png"
}

func (d *drawCmd) Run(ctx context.Context) error {
	format, err := formatForPath(d.output)
	if err != nil {
		return err
	}
	rend, err := d.renderer(d.backend)
	if err != nil {
		return err
	}
	opts := []editor.Option{editor.WithStyle(d.style), editor.WithTool(d.kind)}
	if d.annotations != "" {
		doc, err := store.LoadFile(d.annotations)
		if err != nil {
			return fmt.Errorf("load annotations: %w", err)
		}
		opts = append(opts, editor.WithDocument(doc))
	}

	var st store.Store
	if !d.noStore {
		if st, err = d.openStore(); err != nil {
			return err
		}
		defer st.Close()
	}

	sess := session.New(session.Options{
		Loader:   d.sourceLoader(),
		Saver:    d.newAdapter(rend, format, st, withClipboard(fileDownloader(d.output), d.clipboard)),
		Renderer: rend,
		Logger:   d.logger,
		Editor:   opts,
	})
	defer sess.Close()
	if err := sess.Load(ctx, d.source); err != nil {
		return err
	}
	if err := applyShape(sess, d.kind, d.points, d.text); err != nil {
		return err
	}

	res, err := sess.Save(ctx)
	for _, p := range res.Delivery.Paths {
		saved := p
		if abs, aerr := filepath.Abs(p); aerr == nil {
			saved = abs
		}
		fmt.Fprintf(os.Stderr, "saved %s\n", saved)
	}
	if res.Delivery.Clipboard {
		fmt.Fprintf(os.Stderr, "copied %s to clipboard\n", filepath.Base(d.output))
	}
	if res.Saved {
		fmt.Fprintf(os.Stderr, "stored annotations for %s\n", d.source)
	}
	return err
}

// applyShape replays a pointer drag (or a text click) in image
// coordinates. The viewport is set to the image itself so client and image
// space coincide.
func applyShape(sess *session.Session, kind annotation.Kind, pts []geom.Point, text string) error {
	var size geom.Size
	sess.View(func(ed *editor.Editor) { size = ed.Size() })
	steps := []editor.Action{
		editor.SetViewport{Viewport: geom.Viewport{Bounds: geom.RectXYWH(0, 0, size.W, size.H)}},
		editor.SelectTool{Tool: kind},
		editor.PointerDown{At: pts[0]},
	}
	if kind == annotation.Text {
		steps = append(steps, editor.ConfirmText{Content: text})
	} else {
		for _, p := range pts[1 : len(pts)-1] {
			steps = append(steps, editor.PointerMove{At: p})
		}
		steps = append(steps, editor.PointerUp{At: pts[len(pts)-1]})
	}
	for _, a := range steps {
		if _, err := sess.Dispatch(a); err != nil {
			return fmt.Errorf("%s: %w", kind, err)
		}
	}
	return nil
}

// splitDrawArgs separates known flags from positionals so flags may follow
// the shape and negative coordinates are not taken for flags.
func splitDrawArgs(args []string) ([]string, []string, error) {
	var flags []string
	var positionals []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positionals = append(positionals, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			positionals = append(positionals, arg)
			continue
		}
		name := strings.TrimLeft(arg, "-")
		parts := strings.SplitN(name, "=", 2)
		base := strings.ToLower(parts[0])
		if _, ok := drawFlagNames[base]; !ok {
			positionals = append(positionals, arg)
			continue
		}
		norm := "-" + base
		if len(parts) == 2 {
			flags = append(flags, norm+"="+parts[1])
			continue
		}
		if _, ok := drawBoolFlags[base]; ok {
			flags = append(flags, norm)
			continue
		}
		if i+1 >= len(args) {
			return nil, nil, fmt.Errorf("flag %s requires a value", arg)
		}
		flags = append(flags, norm, args[i+1])
		i++
	}
	return flags, positionals, nil
}
