package adxl345

import (
	"context"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// SPIPort opens exclusive sessions on a SPI controller.
type SPIPort interface {
	Open(ctx context.Context, speed physic.Frequency, mode spi.Mode) (SPISession, error)
}

// SPISession is a full-duplex transfer primitive bound to one device.
type SPISession interface {
	// Transfer clocks tx out and returns the bytes received at the same time.
	// The returned slice has the same length as tx. A zero speed keeps the
	// session clock, otherwise the backend may use it for this transfer only.
	Transfer(ctx context.Context, tx []byte, speed physic.Frequency) ([]byte, error)
	Close() error
}

// OutputLine is a digital output, used as a software chip-select.
type OutputLine interface {
	ConfigureOutput(ctx context.Context, initial gpio.Level) error
	High(ctx context.Context) error
	Low(ctx context.Context) error
	Release(ctx context.Context) error
}

// EdgeInput is a digital input reporting rising edges, e.g. the data-ready
// interrupt of the device.
type EdgeInput interface {
	WaitForEdge(ctx context.Context) error
	Release(ctx context.Context) error
}
