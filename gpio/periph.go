package gpio

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mklimuk/adxl345"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

var _ adxl345.OutputLine = &Pin{}
var _ adxl345.EdgeInput = &Pin{}

// edgePoll bounds a single blocking wait so cancellation is noticed.
const edgePoll = 100 * time.Millisecond

// Pin is a GPIO line resolved through the periph.io registry, e.g. "GPIO8".
type Pin struct {
	pin gpio.PinIO
}

func NewPin(name string) (*Pin, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio %q not found", name)
	}
	return &Pin{pin: p}, nil
}

func (p *Pin) ConfigureOutput(ctx context.Context, initial gpio.Level) error {
	if err := p.pin.Out(initial); err != nil {
		return fmt.Errorf("could not configure %s as output: %w", p.pin, err)
	}
	return nil
}

func (p *Pin) High(ctx context.Context) error {
	return p.pin.Out(gpio.High)
}

func (p *Pin) Low(ctx context.Context) error {
	return p.pin.Out(gpio.Low)
}

// ConfigureEdge turns the line into a rising-edge input. It must be called
// before WaitForEdge.
func (p *Pin) ConfigureEdge(ctx context.Context) error {
	if err := p.pin.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		return fmt.Errorf("could not configure %s for edge detection: %w", p.pin, err)
	}
	return nil
}

func (p *Pin) WaitForEdge(ctx context.Context) error {
	for {
		if p.pin.WaitForEdge(edgePoll) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// Release leaves the line floating and stops any pending edge wait.
func (p *Pin) Release(ctx context.Context) error {
	if err := p.pin.In(gpio.Float, gpio.NoEdge); err != nil {
		slog.Debug("could not float gpio", "pin", p.pin.String(), "error", err)
	}
	return p.pin.Halt()
}

func (p *Pin) String() string {
	return p.pin.String()
}
