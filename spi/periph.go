package spi

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mklimuk/adxl345"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

var _ adxl345.SPIPort = &GenericPort{}

// GenericPort is a SPI port opened through the periph.io registry
// (spidev on Linux boards).
type GenericPort struct {
	mx    sync.Mutex
	port  spi.PortCloser
	conn  spi.Conn
	speed physic.Frequency
	mode  spi.Mode
	busy  bool
}

// NewGenericPort opens the named port, e.g. "SPI0.0". An empty name picks
// the first available one.
func NewGenericPort(dev string) (*GenericPort, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("periph driver loaded", "driver", driver.String())
	}
	port, err := spireg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open spi port %q: %w", dev, err)
	}
	return &GenericPort{port: port}, nil
}

// Open connects the port. periph allows a single Connect per port, so later
// sessions reuse the connection and must ask for the same clock and mode.
func (p *GenericPort) Open(ctx context.Context, speed physic.Frequency, mode spi.Mode) (adxl345.SPISession, error) {
	p.mx.Lock()
	defer p.mx.Unlock()
	if p.busy {
		return nil, fmt.Errorf("spi port %s already in use", p.port)
	}
	if p.conn == nil {
		conn, err := p.port.Connect(speed, mode, 8)
		if err != nil {
			return nil, fmt.Errorf("could not connect spi port %s: %w", p.port, err)
		}
		p.conn, p.speed, p.mode = conn, speed, mode
	} else if p.speed != speed || p.mode != mode {
		return nil, fmt.Errorf("spi port %s connected at %s mode %v, cannot switch to %s mode %v", p.port, p.speed, p.mode, speed, mode)
	}
	p.busy = true
	return &genericSession{port: p}, nil
}

func (p *GenericPort) Close() error {
	return p.port.Close()
}

type genericSession struct {
	port   *GenericPort
	closed bool
}

// Transfer ignores the speed override, periph binds the clock at Connect.
func (s *genericSession) Transfer(ctx context.Context, tx []byte, speed physic.Frequency) ([]byte, error) {
	if s.closed {
		return nil, fmt.Errorf("spi session closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rx := make([]byte, len(tx))
	err := s.port.conn.Tx(tx, rx)
	if err != nil {
		return nil, fmt.Errorf("could not transfer on spi port %s: %w", s.port.port, err)
	}
	return rx, nil
}

func (s *genericSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.port.mx.Lock()
	s.port.busy = false
	s.port.mx.Unlock()
	return nil
}
