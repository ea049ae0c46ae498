package main

import (
	"context"
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/adxl345/accel"
	"github.com/mklimuk/adxl345/cmd/accel/console"
)

var errEnough = errors.New("enough samples")

var watchCmd = &cli.Command{
	Name:  "watch",
	Usage: "print a sample on every data-ready interrupt",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "raw", Usage: "print raw samples instead of m/s²"},
		&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Usage: "stop after this many samples, 0 runs until interrupted"},
	},
	Action: func(c *cli.Context) error {
		count, raw := c.Int("count"), c.Bool("raw")
		return withDevice(c, func(ctx context.Context, d *accel.ADXL345, h *hardware) error {
			if h.edge == nil {
				return console.Exit(console.CodeFailure, "no data ready line configured")
			}
			if d.Config().DataReady == accel.InterruptNone {
				return console.Exit(console.CodeFailure, "data ready interrupt is not routed, set device.dataReady")
			}
			n := 0
			err := d.Watch(ctx, h.edge, func(s accel.RawSample) error {
				if raw {
					console.PInfof(console.PictoBell, "%s", s)
				} else {
					console.PInfof(console.PictoBell, "%s", d.Convert(s))
				}
				n++
				if count > 0 && n >= count {
					return errEnough
				}
				return nil
			})
			if errors.Is(err, errEnough) {
				return nil
			}
			if err != nil && !errors.Is(err, context.Canceled) {
				return console.Exit(console.CodeFailure, "watch failed: %s", console.Red(err))
			}
			return err
		})
	},
}
