package spi

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gobotspi "gobot.io/x/gobot/v2/drivers/spi"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/mklimuk/adxl345"
	"github.com/mklimuk/adxl345/accel"
	"github.com/mklimuk/adxl345/sim"
)

// simSystem is a gobot system SPI device over the simulator. Like spidev it
// clocks tx and rx together and refuses buffers of different lengths.
type simSystem struct {
	session adxl345.SPISession
}

func (s *simSystem) TxRx(tx []byte, rx []byte) error {
	if rx != nil && len(tx) != len(rx) {
		return fmt.Errorf("length of tx (%d) must be the same as length of rx (%d)", len(tx), len(rx))
	}
	out, err := s.session.Transfer(context.Background(), tx, 0)
	if err != nil {
		return err
	}
	copy(rx, out)
	return nil
}

func (s *simSystem) Close() error {
	return s.session.Close()
}

type simConnector struct {
	gobotspi.Connector
	dev      *sim.Device
	mode     int
	maxSpeed int64
}

func (c *simConnector) GetSpiConnection(busNum, chip, mode, bits int, maxSpeed int64) (gobotspi.Connection, error) {
	c.mode, c.maxSpeed = mode, maxSpeed
	session, err := c.dev.Open(context.Background(), physic.Frequency(maxSpeed)*physic.Hertz, spi.Mode(mode))
	if err != nil {
		return nil, err
	}
	return gobotspi.NewConnection(&simSystem{session: session}), nil
}

func TestGobotSession_Transfer(t *testing.T) {
	dev := sim.NewDevice()
	dev.SetSample(16, 32, 48)
	connector := &simConnector{dev: dev}
	port := NewGobotPort(connector, 0, 0)
	ctx := context.Background()

	s, err := port.Open(ctx, 2*physic.MegaHertz, spi.Mode3|spi.NoCS)
	require.NoError(t, err)
	assert.Equal(t, 3, connector.mode)
	assert.Equal(t, int64(2_000_000), connector.maxSpeed)

	rx, err := s.Transfer(ctx, []byte{0x80, 0xFF}, 0)
	require.NoError(t, err)
	assert.Equal(t, byte(sim.Identity), rx[1])

	rx, err = s.Transfer(ctx, []byte{0xF2, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x10, 0x00, 0x20, 0x00, 0x30, 0x00}, rx[1:])

	rx, err = s.Transfer(ctx, []byte{0x2D, 0x08}, 0)
	require.NoError(t, err)
	assert.Len(t, rx, 2)
	assert.Equal(t, byte(0x08), dev.Register(0x2D))

	require.NoError(t, s.Close())
	_, err = s.Transfer(ctx, []byte{0x80, 0xFF}, 0)
	assert.Error(t, err)
}

func TestGobotPort_Device(t *testing.T) {
	dev := sim.NewDevice()
	dev.SetSample(-1, 2, 256)
	dev.SetRegister(accel.RegPowerCtl, 0x20)
	d := accel.NewADXL345(NewGobotPort(&simConnector{dev: dev}, 0, 0), accel.WithStrictIdentity(accel.ExpectedDeviceID))
	ctx := context.Background()

	require.NoError(t, d.Init(ctx))
	assert.Equal(t, accel.ExpectedDeviceID, d.DeviceID())
	assert.Equal(t, byte(0x28), dev.Register(accel.RegPowerCtl))
	s, err := d.ReadXYZRaw(ctx)
	require.NoError(t, err)
	assert.Equal(t, accel.RawSample{X: -1, Y: 2, Z: 256}, s)
	require.NoError(t, d.Shutdown(ctx))
}
