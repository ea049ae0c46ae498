package sim

import (
	"context"
	"sync"

	"github.com/mklimuk/adxl345"
	"periph.io/x/conn/v3/gpio"
)

var _ adxl345.OutputLine = &Line{}
var _ adxl345.EdgeInput = &Edge{}

// Event names recorded by Line.
const (
	EventConfigure = "configure"
	EventLow       = "low"
	EventHigh      = "high"
	EventRelease   = "release"
)

// Line records every operation performed on a digital output.
type Line struct {
	mx     sync.Mutex
	level  gpio.Level
	events []string
	held   bool
}

func (l *Line) ConfigureOutput(ctx context.Context, initial gpio.Level) error {
	l.mx.Lock()
	defer l.mx.Unlock()
	l.held = true
	l.level = initial
	l.events = append(l.events, EventConfigure)
	return nil
}

func (l *Line) High(ctx context.Context) error {
	l.mx.Lock()
	defer l.mx.Unlock()
	l.level = gpio.High
	l.events = append(l.events, EventHigh)
	return nil
}

func (l *Line) Low(ctx context.Context) error {
	l.mx.Lock()
	defer l.mx.Unlock()
	l.level = gpio.Low
	l.events = append(l.events, EventLow)
	return nil
}

func (l *Line) Release(ctx context.Context) error {
	l.mx.Lock()
	defer l.mx.Unlock()
	l.held = false
	l.events = append(l.events, EventRelease)
	return nil
}

func (l *Line) Level() gpio.Level {
	l.mx.Lock()
	defer l.mx.Unlock()
	return l.level
}

func (l *Line) Held() bool {
	l.mx.Lock()
	defer l.mx.Unlock()
	return l.held
}

func (l *Line) Events() []string {
	l.mx.Lock()
	defer l.mx.Unlock()
	out := make([]string, len(l.events))
	copy(out, l.events)
	return out
}

// Edge is a data-ready input fed by Trigger.
type Edge struct {
	edges chan struct{}
}

func NewEdge() *Edge {
	return &Edge{edges: make(chan struct{}, 1)}
}

// Trigger signals one rising edge. Edges are coalesced while nobody waits.
func (e *Edge) Trigger() {
	select {
	case e.edges <- struct{}{}:
	default:
	}
}

func (e *Edge) WaitForEdge(ctx context.Context) error {
	select {
	case <-e.edges:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Edge) Release(ctx context.Context) error {
	return nil
}
