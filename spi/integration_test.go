//go:build integration

package spi

import (
	"context"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/adxl345/accel"
)

// The device must lie still, so the measured vector is gravity.
func TestGenericPort_DeviceAtRest(t *testing.T) {
	port, err := NewGenericPort(os.Getenv("ADXL345_SPI_PORT"))
	require.NoError(t, err)
	defer port.Close()

	ctx := context.Background()
	d := accel.NewADXL345(port, accel.WithStrictIdentity(accel.ExpectedDeviceID))
	require.NoError(t, d.Init(ctx))
	defer func() {
		assert.NoError(t, d.Shutdown(ctx))
	}()

	a, err := d.ReadXYZ(ctx)
	require.NoError(t, err)
	g := math.Sqrt(a.X*a.X + a.Y*a.Y + a.Z*a.Z)
	assert.InDelta(t, accel.StandardGravity, g, 1.5, "measured %s", a)

	// periph keeps the connection, a second session must work after shutdown
	require.NoError(t, d.Shutdown(ctx))
	require.NoError(t, d.Init(ctx))
}
