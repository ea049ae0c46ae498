package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/adxl345/accel"
	"github.com/mklimuk/adxl345/cmd/accel/console"
)

var readCmd = &cli.Command{
	Name:  "read",
	Usage: "read acceleration samples",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "axis", Aliases: []string{"a"}, Usage: "x, y, z or all", Value: "all"},
		&cli.BoolFlag{Name: "raw", Usage: "print raw samples instead of m/s²"},
		&cli.DurationFlag{Name: "interval", Aliases: []string{"i"}, Usage: "repeat reads at this interval"},
		&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Usage: "number of reads, 0 reads until interrupted when an interval is set", Value: 0},
	},
	Action: func(c *cli.Context) error {
		var axis accel.Axis
		all := c.String("axis") == "all"
		if !all {
			if err := axis.UnmarshalText([]byte(c.String("axis"))); err != nil {
				return console.Exit(console.CodeFailure, "invalid axis: %s", console.Red(err))
			}
		}
		interval, count, raw := c.Duration("interval"), c.Int("count"), c.Bool("raw")
		if interval <= 0 && count == 0 {
			count = 1
		}
		return withDevice(c, func(ctx context.Context, d *accel.ADXL345, h *hardware) error {
			var t *time.Ticker
			if interval > 0 {
				t = time.NewTicker(interval)
				defer t.Stop()
			}
			for i := 0; count == 0 || i < count; i++ {
				if i > 0 && t != nil {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-t.C:
					}
				}
				line, err := readOnce(ctx, d, all, axis, raw)
				if errors.Is(err, context.Canceled) {
					return err
				}
				if err != nil {
					return console.Exit(console.CodeFailure, "read failed: %s", console.Red(err))
				}
				console.PInfof(console.PictoAxis, "%s", line)
			}
			return nil
		})
	},
}

func readOnce(ctx context.Context, d *accel.ADXL345, all bool, axis accel.Axis, raw bool) (string, error) {
	switch {
	case all && raw:
		s, err := d.ReadXYZRaw(ctx)
		return s.String(), err
	case all:
		a, err := d.ReadXYZ(ctx)
		return a.String(), err
	case raw:
		v, err := d.ReadAxisRaw(ctx, axis)
		return fmt.Sprintf("%s:%d", axis, v), err
	default:
		v, err := d.ReadAxis(ctx, axis)
		return fmt.Sprintf("%s:%.3f m/s²", axis, v), err
	}
}
