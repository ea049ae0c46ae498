package accel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/adxl345"
	"github.com/mklimuk/adxl345/sim"
)

func TestADXL345_Watch(t *testing.T) {
	dev := sim.NewDevice()
	d := NewADXL345(dev, WithDataReadyInterrupt(InterruptINT1))
	ctx := context.Background()
	require.NoError(t, d.Init(ctx))
	defer d.Shutdown(ctx)

	edge := sim.NewEdge()
	errDone := errors.New("done")
	var got []RawSample
	samples := []RawSample{{X: 1, Y: 2, Z: 3}, {X: -4, Y: -5, Z: -6}}
	dev.SetSample(samples[0].X, samples[0].Y, samples[0].Z)
	edge.Trigger()

	err := d.Watch(ctx, edge, func(s RawSample) error {
		got = append(got, s)
		if len(got) == len(samples) {
			return errDone
		}
		next := samples[len(got)]
		dev.SetSample(next.X, next.Y, next.Z)
		edge.Trigger()
		return nil
	})
	assert.ErrorIs(t, err, errDone)
	assert.Equal(t, samples, got)
}

func TestADXL345_WatchCancelled(t *testing.T) {
	dev := sim.NewDevice()
	d := NewADXL345(dev, WithDataReadyInterrupt(InterruptINT2))
	require.NoError(t, d.Init(context.Background()))
	defer d.Shutdown(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	edge := sim.NewEdge()
	go cancel()
	err := d.Watch(ctx, edge, func(RawSample) error {
		t.Fatal("no edge was triggered")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestADXL345_WatchRequiresInterrupt(t *testing.T) {
	dev := sim.NewDevice()
	d := NewADXL345(dev)
	ctx := context.Background()
	assert.ErrorIs(t, d.Watch(ctx, sim.NewEdge(), nil), adxl345.ErrNotReady)

	require.NoError(t, d.Init(ctx))
	defer d.Shutdown(ctx)
	assert.ErrorIs(t, d.Watch(ctx, sim.NewEdge(), nil), adxl345.ErrInvalidArgument)
}
