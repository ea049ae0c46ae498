package main

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/adxl345/accel"
	"github.com/mklimuk/adxl345/cmd/accel/console"
)

var idCmd = &cli.Command{
	Name:  "id",
	Usage: "read the device identity",
	Action: func(c *cli.Context) error {
		return withDevice(c, func(ctx context.Context, d *accel.ADXL345, h *hardware) error {
			console.PInfof(console.PictoChip, "%s", console.Identity("ADXL345", d.DeviceID(), d.Config().ExpectedID))
			return nil
		})
	},
}
