package spi

import (
	"context"
	"fmt"
	"sync"

	"github.com/mklimuk/adxl345"
	"github.com/stianeikeland/go-rpio/v4"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

var _ adxl345.SPIPort = &RPIOPort{}

// RPIOPort drives the Raspberry Pi SPI0 controller through /dev/gpiomem
// register access. It is the only backend honouring per-transfer speeds.
type RPIOPort struct {
	mx   sync.Mutex
	chip uint8
	busy bool
}

// NewRPIOPort maps the GPIO memory. chip selects CE0 or CE1. Sessions opened
// with spi.NoCS move the controller to CE2, which the 40 pin header does not
// expose, so CE0 and CE1 stay idle next to the software line.
func NewRPIOPort(chip uint8) (*RPIOPort, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("could not open gpio memory: %w", err)
	}
	return &RPIOPort{chip: chip}, nil
}

func (p *RPIOPort) Open(ctx context.Context, speed physic.Frequency, mode spi.Mode) (adxl345.SPISession, error) {
	p.mx.Lock()
	defer p.mx.Unlock()
	if p.busy {
		return nil, fmt.Errorf("spi0 already in use")
	}
	if err := rpio.SpiBegin(rpio.Spi0); err != nil {
		return nil, fmt.Errorf("could not start spi0: %w", err)
	}
	hz := int(speed / physic.Hertz)
	rpio.SpiSpeed(hz)
	rpio.SpiMode(clockBits(mode))
	rpio.SpiChipSelect(chipSelect(p.chip, mode))
	p.busy = true
	return &rpioSession{port: p, speed: hz}, nil
}

func (p *RPIOPort) Close() error {
	return rpio.Close()
}

type rpioSession struct {
	port   *RPIOPort
	speed  int
	closed bool
}

func (s *rpioSession) Transfer(ctx context.Context, tx []byte, speed physic.Frequency) ([]byte, error) {
	if s.closed {
		return nil, fmt.Errorf("spi session closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if hz := int(speed / physic.Hertz); hz > 0 && hz != s.speed {
		rpio.SpiSpeed(hz)
		defer rpio.SpiSpeed(s.speed)
	}
	// exchange happens in place
	buf := make([]byte, len(tx))
	copy(buf, tx)
	rpio.SpiExchange(buf)
	return buf, nil
}

func (s *rpioSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	rpio.SpiEnd(rpio.Spi0)
	s.port.mx.Lock()
	s.port.busy = false
	s.port.mx.Unlock()
	return nil
}

// clockBits splits a periph mode into polarity and phase.
func clockBits(mode spi.Mode) (cpol, cpha uint8) {
	return uint8(mode>>1) & 1, uint8(mode) & 1
}

// chipSelect is the controller CS line for a session. The controller always
// drives one, spi.NoCS parks it on the unconnected CE2.
func chipSelect(chip uint8, mode spi.Mode) uint8 {
	if mode&spi.NoCS != 0 {
		return 2
	}
	return chip
}
