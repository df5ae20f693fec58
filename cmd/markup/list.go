package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/example/markup/internal/capture"
)

type windowsCmd struct {
	*root
	fs *flag.FlagSet
}

func parseWindowsCmd(args []string, r *root) (*windowsCmd, error) {
	fs := flag.NewFlagSet("windows", flag.ExitOnError)
	cmd := &windowsCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

func (c *windowsCmd) Run(ctx context.Context) error {
	windows, err := capture.ListWindows(ctx)
	if err != nil {
		return err
	}
	if len(windows) == 0 {
		fmt.Fprintln(os.Stdout, "no windows available")
		return nil
	}
	fmt.Fprintln(os.Stdout, "available windows (* marks the active window):")
	for _, win := range windows {
		marker := " "
		if win.Active {
			marker = "*"
		}
		fmt.Fprintf(os.Stdout, "%s %s\n", marker, formatWindowLabel(win))
	}
	fmt.Fprintln(os.Stdout, "use as x11:window:<selector>; selectors: index:<n>, id:<hex>, pid:<pid>, exec:<name>, class:<name>, title:<text>, substring match")
	return nil
}

func (c *windowsCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func formatWindowLabel(win capture.WindowInfo) string {
	parts := []string{fmt.Sprintf("%2d: 0x%08x", win.Index, win.ID)}
	title := strings.TrimSpace(win.Title)
	if title == "" {
		title = "(untitled)"
	}
	parts = append(parts, fmt.Sprintf("%q", title))
	if win.Class != "" {
		parts = append(parts, "class="+win.Class)
	}
	if win.Executable != "" {
		parts = append(parts, "exec="+win.Executable)
	}
	if win.PID != 0 {
		parts = append(parts, fmt.Sprintf("pid=%d", win.PID))
	}
	parts = append(parts, fmt.Sprintf("%dx%d", win.Rect.Dx(), win.Rect.Dy()))
	return strings.Join(parts, " ")
}

type monitorsCmd struct {
	*root
	fs *flag.FlagSet
}

func parseMonitorsCmd(args []string, r *root) (*monitorsCmd, error) {
	fs := flag.NewFlagSet("monitors", flag.ExitOnError)
	cmd := &monitorsCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

func (c *monitorsCmd) Run(ctx context.Context) error {
	monitors, err := capture.ListMonitors(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "available monitors (* marks the primary monitor):")
	for _, m := range monitors {
		marker := " "
		if m.Primary {
			marker = "*"
		}
		fmt.Fprintf(os.Stdout, "%s %d: %s %dx%d+%d+%d\n", marker, m.Index, m.Name,
			m.Rect.Dx(), m.Rect.Dy(), m.Rect.Min.X, m.Rect.Min.Y)
	}
	fmt.Fprintln(os.Stdout, "use as x11:monitor:<index or name>")
	return nil
}

func (c *monitorsCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

// recordsCmd lists the documents saved in the sqlite store.
type recordsCmd struct {
	*root
	fs *flag.FlagSet
}

func parseRecordsCmd(args []string, r *root) (*recordsCmd, error) {
	fs := flag.NewFlagSet("records", flag.ExitOnError)
	cmd := &recordsCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

func (c *recordsCmd) Run(ctx context.Context) error {
	db, err := c.openSQLite()
	if err != nil {
		return err
	}
	defer db.Close()
	list, err := db.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(os.Stdout, "no saved records")
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSAVED\tANNOTATIONS\tSOURCE")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.ID, s.SavedAt.Local().Format(time.DateTime), s.Annotations, s.Source)
	}
	return tw.Flush()
}

func (c *recordsCmd) FlagSet() *flag.FlagSet {
	return c.fs
}
