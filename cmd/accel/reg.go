package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/adxl345/accel"
	"github.com/mklimuk/adxl345/cmd/accel/console"
	"github.com/mklimuk/adxl345/regbus"
)

var regCmd = &cli.Command{
	Name:    "register",
	Aliases: []string{"reg"},
	Usage:   "raw register access",
	Subcommands: []*cli.Command{
		regReadCmd,
		regWriteCmd,
	},
}

var regReadCmd = &cli.Command{
	Name:      "read",
	Usage:     "read registers",
	ArgsUsage: "<register> [length]",
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 || c.NArg() > 2 {
			return console.Exit(console.CodeFailure, "expected 1 or 2 arguments, got %d", c.NArg())
		}
		addr, err := parseRegister(c.Args().Get(0))
		if err != nil {
			return console.Exit(console.CodeFailure, "could not decode register: %v", err)
		}
		length := 1
		if c.NArg() == 2 {
			length, err = strconv.Atoi(c.Args().Get(1))
			if err != nil {
				return console.Exit(console.CodeFailure, "could not decode length: %v", err)
			}
		}
		return withDevice(c, func(ctx context.Context, d *accel.ADXL345, h *hardware) error {
			data, err := d.ReadRegister(ctx, addr, length)
			if err != nil {
				return console.Exit(console.CodeFailure, "could not read %s: %s", accel.RegisterName(addr), console.Red(err))
			}
			for i, b := range data {
				r := addr + byte(i)
				console.Printf("%s\n", console.RegisterLine(r, accel.RegisterName(r), b))
			}
			return nil
		})
	},
}

var regWriteCmd = &cli.Command{
	Name:      "write",
	Usage:     "write registers",
	ArgsUsage: "<register> <hex bytes>",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return console.Exit(console.CodeFailure, "expected 2 arguments, got %d", c.NArg())
		}
		addr, err := parseRegister(c.Args().Get(0))
		if err != nil {
			return console.Exit(console.CodeFailure, "could not decode register: %v", err)
		}
		payload, err := hex.DecodeString(strings.TrimPrefix(c.Args().Get(1), "0x"))
		if err != nil {
			return console.Exit(console.CodeFailure, "could not decode payload: %v", err)
		}
		if !c.Bool("yes") {
			ok, err := console.Confirm(fmt.Sprintf("write % X to %s?", payload, accel.RegisterName(addr)))
			if err != nil {
				return console.Exit(console.CodeFailure, "could not read answer: %v", err)
			}
			if !ok {
				console.PInfof(console.PictoStop, "aborted")
				return nil
			}
		}
		return withDevice(c, func(ctx context.Context, d *accel.ADXL345, h *hardware) error {
			if err := d.WriteRegister(ctx, addr, payload...); err != nil {
				return console.Exit(console.CodeFailure, "could not write %s: %s", accel.RegisterName(addr), console.Red(err))
			}
			console.PInfof(console.PictoPin, "wrote % X to %s", payload, console.Bold(accel.RegisterName(addr)))
			return nil
		})
	},
}

// parseRegister accepts a register name (POWER_CTL) or a number (0x2D, 45).
func parseRegister(s string) (byte, error) {
	for addr := byte(0); addr <= regbus.AddressMask; addr++ {
		if strings.EqualFold(accel.RegisterName(addr), s) {
			return addr, nil
		}
	}
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, err
	}
	if v > regbus.AddressMask {
		return 0, fmt.Errorf("register %#x out of range", v)
	}
	return byte(v), nil
}
