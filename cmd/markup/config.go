package main

import (
	"context"
	"flag"
	"fmt"
	"os"
)

type configCmd struct {
	*root
	fs *flag.FlagSet
}

func (c *configCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseConfigCmd(args []string, r *root) (*configCmd, error) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	c := &configCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

func (c *configCmd) Run(context.Context) error {
	switch sub := c.fs.Arg(0); sub {
	case "print":
		fmt.Print(c.config.String())
		return nil
	case "path":
		path := configLoader().ConfigPath()
		if path == "" {
			path = configLoader().DefaultPath() + " (not created)"
		}
		fmt.Println(path)
		return nil
	case "save":
		path, err := configLoader().Save(c.config)
		if err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Configuration saved to %s\n", path)
		return nil
	default:
		return fmt.Errorf("unknown config command: %s", sub)
	}
}
