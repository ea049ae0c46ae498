package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/adxl345/cmd/accel/console"
	"github.com/mklimuk/adxl345/config"
)

var configCmd = &cli.Command{
	Name:  "config",
	Usage: "configuration file operations",
	Subcommands: []*cli.Command{
		configShowCmd,
		configInitCmd,
	},
}

var configShowCmd = &cli.Command{
	Name:  "show",
	Usage: "print the effective configuration",
	Action: func(c *cli.Context) error {
		f, err := config.Load(c.String("config"))
		if errors.Is(err, fs.ErrNotExist) && !c.IsSet("config") {
			console.Infof("%s not found, showing defaults", c.String("config"))
			f = config.Default()
		} else if err != nil {
			return console.Exit(console.CodeConfig, "could not load configuration: %s", console.Red(err))
		}
		if c.IsSet("backend") {
			f.Bus.Backend = config.Backend(c.String("backend"))
		}
		if err := config.Write(console.Writer(), f); err != nil {
			return console.Exit(console.CodeFailure, "%s", console.Red(err))
		}
		warnings, err := f.Validate()
		for _, w := range warnings {
			console.Warnf("%s", w)
		}
		if err != nil {
			console.Errorf("%s", err)
			return console.Exit(console.CodeConfig, "invalid configuration")
		}
		return nil
	},
}

var configInitCmd = &cli.Command{
	Name:  "init",
	Usage: "write a default configuration file",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "force", Usage: "overwrite without asking"},
	},
	Action: func(c *cli.Context) error {
		path := c.String("config")
		if _, err := os.Stat(path); err == nil && !c.Bool("force") {
			answer, err := console.YesOrNo(fmt.Sprintf("%s exists, overwrite?", path))
			if err != nil {
				return console.Exit(console.CodeFailure, "could not read answer: %v", err)
			}
			if answer != console.Yes {
				console.PInfof(console.PictoStop, "kept %s", path)
				return nil
			}
		}
		out, err := os.Create(path)
		if err != nil {
			return console.Exit(console.CodeFailure, "could not create %s: %s", path, console.Red(err))
		}
		defer out.Close()
		if err := config.Write(out, config.Default()); err != nil {
			return console.Exit(console.CodeFailure, "%s", console.Red(err))
		}
		console.PInfof(console.PictoPin, "configuration written to %s", console.Bold(path))
		return nil
	},
}
