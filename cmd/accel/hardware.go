package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"
	gobotspi "gobot.io/x/gobot/v2/drivers/spi"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
	"gobot.io/x/gobot/v2/platforms/raspi"

	"github.com/mklimuk/adxl345"
	"github.com/mklimuk/adxl345/accel"
	"github.com/mklimuk/adxl345/cmd/accel/console"
	"github.com/mklimuk/adxl345/config"
	"github.com/mklimuk/adxl345/gpio"
	"github.com/mklimuk/adxl345/sim"
	"github.com/mklimuk/adxl345/snsctx"
	"github.com/mklimuk/adxl345/spi"
)

// hardware is everything opened for one command run.
type hardware struct {
	port    adxl345.SPIPort
	cs      adxl345.OutputLine
	edge    adxl345.EdgeInput
	closers []func() error
}

func (h *hardware) onClose(f func() error) {
	h.closers = append(h.closers, f)
}

func (h *hardware) Close() error {
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		errs = append(errs, h.closers[i]())
	}
	return errors.Join(errs...)
}

type gobotAdaptor interface {
	gobotspi.Connector
	Connect() error
	Finalize() error
}

// edgeLine is a data-ready input that has to be switched to edge detection.
type edgeLine interface {
	adxl345.EdgeInput
	ConfigureEdge(ctx context.Context) error
}

func loadConfig(c *cli.Context) (*config.File, error) {
	f, err := config.Load(c.String("config"))
	if errors.Is(err, fs.ErrNotExist) && !c.IsSet("config") {
		slog.Debug("no configuration file, using defaults", "path", c.String("config"))
		f = config.Default()
	} else if err != nil {
		return nil, err
	}
	if c.IsSet("backend") {
		f.Bus.Backend = config.Backend(c.String("backend"))
	}
	warnings, err := f.Validate()
	for _, w := range warnings {
		slog.Warn(w)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func openHardware(ctx context.Context, f *config.File) (*hardware, error) {
	h := &hardware{}
	var err error
	switch f.Bus.Backend {
	case config.BackendPeriph:
		err = openPeriph(ctx, h, f)
	case config.BackendRPIO:
		err = openRPIO(ctx, h, f)
	case config.BackendGobot:
		err = openGobot(ctx, h, f)
	case config.BackendSim:
		openSim(h, f)
	default:
		err = fmt.Errorf("unknown bus backend %q", f.Bus.Backend)
	}
	if err != nil {
		return nil, errors.Join(err, h.Close())
	}
	return h, nil
}

func openPeriph(ctx context.Context, h *hardware, f *config.File) error {
	port, err := spi.NewGenericPort(f.Bus.Device)
	if err != nil {
		return err
	}
	h.port = port
	h.onClose(port.Close)
	return openPeriphLines(ctx, h, f)
}

// openPeriphLines resolves chip-select and data-ready through periph, which
// also serves boards driven by gobot.
func openPeriphLines(ctx context.Context, h *hardware, f *config.File) error {
	if f.ChipSelect.Pin != "" {
		cs, err := gpio.NewPin(f.ChipSelect.Pin)
		if err != nil {
			return fmt.Errorf("chip select: %w", err)
		}
		h.cs = cs
	}
	if f.DataReady.Pin != "" {
		edge, err := gpio.NewPin(f.DataReady.Pin)
		if err != nil {
			return fmt.Errorf("data ready: %w", err)
		}
		return h.setEdge(ctx, edge)
	}
	return nil
}

func (h *hardware) setEdge(ctx context.Context, edge edgeLine) error {
	if err := edge.ConfigureEdge(ctx); err != nil {
		return err
	}
	h.edge = edge
	h.onClose(func() error { return edge.Release(context.WithoutCancel(ctx)) })
	return nil
}

func openRPIO(ctx context.Context, h *hardware, f *config.File) error {
	port, err := spi.NewRPIOPort(uint8(f.Bus.Chip))
	if err != nil {
		return err
	}
	h.port = port
	h.onClose(port.Close)
	if f.ChipSelect.Pin != "" {
		bcm, err := strconv.ParseUint(f.ChipSelect.Pin, 10, 8)
		if err != nil {
			return fmt.Errorf("chip select pin %q is not a BCM number: %w", f.ChipSelect.Pin, err)
		}
		h.cs = gpio.NewRPIOPin(uint8(bcm))
	}
	if f.DataReady.Pin != "" {
		bcm, err := strconv.ParseUint(f.DataReady.Pin, 10, 8)
		if err != nil {
			return fmt.Errorf("data ready pin %q is not a BCM number: %w", f.DataReady.Pin, err)
		}
		return h.setEdge(ctx, gpio.NewRPIOPin(uint8(bcm)))
	}
	return nil
}

func openGobot(ctx context.Context, h *hardware, f *config.File) error {
	var adaptor gobotAdaptor
	switch f.Bus.Platform {
	case config.PlatformRaspi:
		adaptor = raspi.NewAdaptor()
	case config.PlatformNanoPi:
		adaptor = nanopi.NewNeoAdaptor()
	default:
		return fmt.Errorf("unknown gobot platform %q", f.Bus.Platform)
	}
	if err := adaptor.Connect(); err != nil {
		return fmt.Errorf("could not connect %s adaptor: %w", f.Bus.Platform, err)
	}
	h.onClose(adaptor.Finalize)
	h.port = spi.NewGobotPort(adaptor, f.Bus.Number, f.Bus.Chip)
	return openPeriphLines(ctx, h, f)
}

// simulatedSample is a device lying flat, 1g on Z.
var simulatedSample = accel.RawSample{X: 0, Y: 0, Z: 256}

// openSim wires the register-file simulator with a data-ready edge firing at
// the configured output data rate.
func openSim(h *hardware, f *config.File) {
	dev := sim.NewDevice()
	dev.SetSample(simulatedSample.X, simulatedSample.Y, simulatedSample.Z)
	h.port = dev
	h.cs = &sim.Line{}
	edge := sim.NewEdge()
	h.edge = edge
	period := f.Device.ODR.Frequency().Period()
	if period <= 0 {
		period = 10 * time.Millisecond
	}
	done := make(chan struct{})
	go func() {
		t := time.NewTicker(period)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				edge.Trigger()
			}
		}
	}()
	h.onClose(func() error {
		close(done)
		return nil
	})
}

// deviceFunc runs with an initialized device.
type deviceFunc func(ctx context.Context, d *accel.ADXL345, h *hardware) error

// withDevice opens the configured hardware, initializes the device and
// always shuts both down, interrupted or not.
func withDevice(c *cli.Context, fn deviceFunc) (err error) {
	f, err := loadConfig(c)
	if err != nil {
		return console.Exit(console.CodeConfig, "invalid configuration: %s", console.Red(err))
	}
	ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
	h, err := openHardware(ctx, f)
	if err != nil {
		return console.Exit(console.CodeFailure, "could not open %s backend: %s", f.Bus.Backend, console.Red(err))
	}
	defer func() {
		if cerr := h.Close(); cerr != nil {
			slog.Error("could not release hardware", "error", cerr)
		}
	}()
	opts := f.Options()
	if h.cs != nil && f.Device.ChipSelect == accel.ChipSelectSoftware {
		opts = append(opts, accel.WithChipSelect(h.cs))
	}
	d := accel.NewADXL345(h.port, opts...)
	defer func() {
		if serr := d.Shutdown(ctx); serr != nil {
			slog.Error("could not shut device down", "error", serr)
		}
	}()
	if err := d.Init(ctx); err != nil {
		return console.Exit(console.CodeFailure, "could not initialize device: %s", console.Red(err))
	}
	slog.Debug("device ready", "device", d.String())
	err = fn(ctx, d, h)
	if errors.Is(err, context.Canceled) {
		console.PInfof(console.PictoFinish, "interrupted")
		return nil
	}
	return err
}
