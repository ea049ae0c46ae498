package spi

import (
	"context"
	"fmt"

	"github.com/mklimuk/adxl345"
	gobotspi "gobot.io/x/gobot/v2/drivers/spi"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

var _ adxl345.SPIPort = &GobotPort{}

// GobotPort opens sessions through a Gobot SPI adaptor, e.g. the NanoPi or
// Raspberry Pi platforms. The adaptor must be connected and owns the
// underlying connections, they are closed by its Finalize.
type GobotPort struct {
	adaptor gobotspi.Connector
	bus     int
	chip    int
}

// NewGobotPort binds a port to the adaptor's bus and chip-select numbers.
func NewGobotPort(adaptor gobotspi.Connector, bus, chip int) *GobotPort {
	return &GobotPort{adaptor: adaptor, bus: bus, chip: chip}
}

// Open gets the adaptor connection. Gobot has no notion of a driver-less chip
// select, spi.NoCS only means the kernel controlled line is left unwired.
func (p *GobotPort) Open(ctx context.Context, speed physic.Frequency, mode spi.Mode) (adxl345.SPISession, error) {
	conn, err := p.adaptor.GetSpiConnection(p.bus, p.chip, int(mode&spi.Mode3), 8, int64(speed/physic.Hertz))
	if err != nil {
		return nil, fmt.Errorf("could not get gobot spi connection on bus %d chip %d: %w", p.bus, p.chip, err)
	}
	return &gobotSession{conn: conn}, nil
}

type gobotSession struct {
	conn   gobotspi.Connection
	closed bool
}

// Transfer sends the frame as one full-duplex exchange, Gobot requires tx and
// rx of equal length. Writes skip the receive buffer. Gobot connections have
// a fixed clock so the speed override is ignored.
func (s *gobotSession) Transfer(ctx context.Context, tx []byte, speed physic.Frequency) ([]byte, error) {
	if s.closed {
		return nil, fmt.Errorf("spi session closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(tx) == 0 {
		return nil, nil
	}
	rx := make([]byte, len(tx))
	if tx[0]&0x80 == 0 {
		if err := s.conn.WriteBytes(tx); err != nil {
			return nil, fmt.Errorf("could not write %d bytes: %w", len(tx), err)
		}
		return rx, nil
	}
	if err := s.conn.ReadCommandData(tx, rx); err != nil {
		return nil, fmt.Errorf("could not read %d bytes: %w", len(tx)-1, err)
	}
	return rx, nil
}

// Close leaves the connection to the adaptor, which reuses it for the next
// session.
func (s *gobotSession) Close() error {
	s.closed = true
	return nil
}
