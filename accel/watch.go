package accel

import (
	"context"
	"fmt"

	"github.com/mklimuk/adxl345"
)

// Watch reads one sample for every rising edge of the data-ready line and
// hands it to fn until ctx is done or fn returns an error. The device must
// have been initialized with WithDataReadyInterrupt and edge must be wired to
// the selected pin. The context error is returned on cancellation.
func (d *ADXL345) Watch(ctx context.Context, edge adxl345.EdgeInput, fn func(RawSample) error) error {
	if err := d.measuring(); err != nil {
		return err
	}
	if d.config.DataReady == InterruptNone {
		return fmt.Errorf("data ready interrupt not routed: %w", adxl345.ErrInvalidArgument)
	}
	// a sample converted before we started waiting keeps the line high
	if _, err := d.ReadXYZRaw(ctx); err != nil {
		return err
	}
	for {
		if err := edge.WaitForEdge(ctx); err != nil {
			return err
		}
		s, err := d.ReadXYZRaw(ctx)
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
	}
}
