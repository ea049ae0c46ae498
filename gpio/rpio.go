package gpio

import (
	"context"
	"fmt"
	"time"

	"github.com/mklimuk/adxl345"
	"github.com/stianeikeland/go-rpio/v4"
	"periph.io/x/conn/v3/gpio"
)

var _ adxl345.OutputLine = &RPIOPin{}
var _ adxl345.EdgeInput = &RPIOPin{}

const rpioPoll = time.Millisecond

// RPIOPin is a BCM numbered line driven through go-rpio. rpio.Open must have
// been called, which spi.NewRPIOPort does.
type RPIOPin struct {
	pin rpio.Pin
}

func NewRPIOPin(bcm uint8) *RPIOPin {
	return &RPIOPin{pin: rpio.Pin(bcm)}
}

func (p *RPIOPin) ConfigureOutput(ctx context.Context, initial gpio.Level) error {
	p.pin.Output()
	p.pin.Write(level(initial))
	return nil
}

func (p *RPIOPin) High(ctx context.Context) error {
	p.pin.High()
	return nil
}

func (p *RPIOPin) Low(ctx context.Context) error {
	p.pin.Low()
	return nil
}

func (p *RPIOPin) ConfigureEdge(ctx context.Context) error {
	p.pin.Input()
	p.pin.PullDown()
	p.pin.Detect(rpio.RiseEdge)
	return nil
}

// WaitForEdge polls the event detect status, rpio has no blocking wait.
func (p *RPIOPin) WaitForEdge(ctx context.Context) error {
	t := time.NewTicker(rpioPoll)
	defer t.Stop()
	for {
		if p.pin.EdgeDetected() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (p *RPIOPin) Release(ctx context.Context) error {
	p.pin.Detect(rpio.NoEdge)
	p.pin.Input()
	return nil
}

func (p *RPIOPin) String() string {
	return fmt.Sprintf("BCM%d", uint8(p.pin))
}

func level(l gpio.Level) rpio.State {
	if l == gpio.High {
		return rpio.High
	}
	return rpio.Low
}
