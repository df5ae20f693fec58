package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/example/markup/internal/config"
	"github.com/example/markup/internal/logger"
	"github.com/example/markup/internal/notify"
	"github.com/example/markup/internal/theme"
	"github.com/example/markup/internal/tracing"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface {
	Run(ctx context.Context) error
}

type root struct {
	fs           *flag.FlagSet
	program      string
	config       *config.Config
	logger       *slog.Logger
	notifier     *notify.Notifier
	themeName    string
	logLevel     string
	trace        bool
	saveAlerts   bool
	exportAlerts bool
	copyAlerts   bool
	activeTheme  *theme.Theme
}

func (r *root) Program() string {
	if r == nil || r.program == "" {
		return "markup"
	}
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	if r == nil {
		return nil
	}
	return r.fs
}

// configLoader honours MARKUP_CONFIG over the build-time override.
func configLoader() *config.Loader {
	path := configPathOverride
	if env := strings.TrimSpace(os.Getenv("MARKUP_CONFIG")); env != "" {
		path = env
	}
	return config.NewLoader(version, path)
}

func newRoot() *root {
	cfg, err := configLoader().Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}

	r := &root{
		fs:       flag.NewFlagSet("markup", flag.ExitOnError),
		program:  "markup",
		config:   cfg,
		logger:   logger.Discard(),
		notifier: notify.New(notify.LoadPreferences(), nil),
	}
	r.fs.BoolVar(&r.saveAlerts, "notify-save", cfg.Notify.Save, "show a desktop notification after the annotations are stored")
	r.fs.BoolVar(&r.exportAlerts, "notify-export", cfg.Notify.Export, "show a desktop notification after the flattened image is written")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", cfg.Notify.Copy, "show a desktop notification after copying to the clipboard")
	r.fs.StringVar(&r.logLevel, "log-level", cfg.Log.Level, "log level (debug, info, warn, error)")
	r.fs.BoolVar(&r.trace, "trace", cfg.Trace.Enabled, "write OpenTelemetry spans to the trace output")

	// Precedence: CLI > Env > Config > Default. An empty flag falls through.
	r.fs.StringVar(&r.themeName, "theme", "", "color theme to use (default, dark or a [theme.<name>] section)")
	r.fs.Usage = usageFunc(r)
	return r
}

func (r *root) Run(ctx context.Context, args []string) (err error) {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}

	logCfg := r.config.Log
	logCfg.Level = r.logLevel
	log, closeLog, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	defer func() { err = errors.Join(err, closeLog()) }()
	r.logger = log
	slog.SetDefault(log)

	traceCfg := r.config.Trace
	traceCfg.Enabled = r.trace
	shutdown, err := tracing.Setup(ctx, traceCfg)
	if err != nil {
		return fmt.Errorf("set up tracing: %w", err)
	}
	defer func() { err = errors.Join(err, shutdown(context.WithoutCancel(ctx))) }()

	r.notifier = notify.New(notify.LoadPreferences(), log)
	r.notifier.Enable(notify.EventSave, r.saveAlerts)
	r.notifier.Enable(notify.EventExport, r.exportAlerts)
	r.notifier.Enable(notify.EventCopy, r.copyAlerts)

	r.activeTheme = r.resolveTheme()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var cmd runnable
	switch cmdName {
	case "annotate":
		cmd, err = parseAnnotateCmd(subArgs, r)
	case "draw":
		cmd, err = parseDrawCmd(subArgs, r)
	case "render":
		cmd, err = parseRenderCmd(subArgs, r)
	case "records":
		cmd, err = parseRecordsCmd(subArgs, r)
	case "windows":
		cmd, err = parseWindowsCmd(subArgs, r)
	case "monitors":
		cmd, err = parseMonitorsCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{root: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run(ctx)
}

// resolveTheme picks the theme named by the flag, MARKUP_THEME or the
// config, preferring [theme.<name>] sections over built-in themes.
func (r *root) resolveTheme() *theme.Theme {
	name := r.themeName
	if name == "" {
		name = os.Getenv("MARKUP_THEME")
	}
	if name == "" {
		name = r.config.Theme
	}
	if t, ok := r.config.Themes[name]; ok {
		return t
	}
	t, err := theme.NewLoader().Load(name)
	if err != nil {
		if name != "" && !strings.EqualFold(name, "default") {
			fmt.Fprintf(os.Stderr, "warning: failed to load theme '%s': %v. using default.\n", name, err)
		}
		return theme.Default()
	}
	return t
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := newRoot()
	if err := r.Run(ctx, os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
			stop()
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
