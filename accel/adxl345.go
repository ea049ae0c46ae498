package accel

import (
	"context"
	"errors"
	"fmt"

	"github.com/mklimuk/adxl345"
	"github.com/mklimuk/adxl345/regbus"
	"github.com/mklimuk/adxl345/snsctx"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/spi"
)

type State int

const (
	StateUninitialized State = iota
	StateConfiguring
	StateMeasuring
	StateError
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConfiguring:
		return "configuring"
	case StateMeasuring:
		return "measuring"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ADXL345 represents Analog Devices ADXL345 3-axis accelerometer on SPI.
// Typical usage:
//
//	d := NewADXL345(port, WithRange(Range4G))
//	if err := d.Init(ctx); err != nil { ... }
//	defer d.Shutdown(ctx)
//	a, err := d.ReadXYZ(ctx)
//
// Calibrated values are in m/s². ADXL345 is not safe for concurrent use.
type ADXL345 struct {
	port   adxl345.SPIPort
	cs     adxl345.OutputLine
	config Config
	conv   converter

	state   State
	session adxl345.SPISession
	bus     *regbus.Bus
	csHeld  bool
	id      byte
}

func NewADXL345(port adxl345.SPIPort, opts ...Option) *ADXL345 {
	d := &ADXL345{port: port, config: DefaultConfig()}
	for _, opt := range opts {
		opt(d)
	}
	if d.config.Speed == 0 {
		d.config.Speed = DefaultSpeed
	}
	d.conv = newConverter(d.config)
	return d
}

// Init opens the bus, latches the device identity and configures the device
// in this order: output data rate, data format, optional data-ready
// interrupt, measurement enable. On failure the device is left in StateError
// and Shutdown must be called before retrying. An invalid configuration is
// rejected before any bus traffic and leaves the device uninitialized.
func (d *ADXL345) Init(ctx context.Context) error {
	if d.state != StateUninitialized {
		return fmt.Errorf("device is %s: %w", d.state, adxl345.ErrAlreadyInitialized)
	}
	if err := d.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log := snsctx.Logger(ctx)
	d.state = StateConfiguring
	fail := func(step string, err error) error {
		d.state = StateError
		return &adxl345.InitializationError{Step: step, Err: err}
	}

	mode := spi.Mode3
	var busOpts []regbus.Option
	if d.config.ChipSelect == ChipSelectSoftware {
		if d.cs == nil {
			return fail("chip select", fmt.Errorf("software chip select without a line: %w", adxl345.ErrInvalidArgument))
		}
		err := d.cs.ConfigureOutput(ctx, gpio.High)
		if err != nil {
			return fail("chip select", err)
		}
		d.csHeld = true
		mode |= spi.NoCS
		busOpts = append(busOpts, regbus.WithChipSelect(d.cs))
	}

	if minSpeed := MinimumBusSpeed(d.config.ODR); d.config.Speed < minSpeed {
		log.Warn("bus clock below datasheet minimum for output data rate",
			"speed", d.config.Speed, "odr", d.config.ODR, "minimum", minSpeed)
	}
	session, err := d.port.Open(ctx, d.config.Speed, mode)
	if err != nil {
		return fail("bus open", err)
	}
	d.session = session
	d.bus = regbus.New(session, busOpts...)

	id, err := d.bus.Read(ctx, RegDeviceID, 1)
	if err != nil {
		return fail("identity read", err)
	}
	d.id = id[0]
	if d.id != d.config.ExpectedID {
		if d.config.StrictIdentity {
			return fail("identity check", fmt.Errorf("%w: got %#02x, expected %#02x", adxl345.ErrIdentityMismatch, d.id, d.config.ExpectedID))
		}
		log.Warn("unexpected device identity", "id", fmt.Sprintf("%#02x", d.id), "expected", fmt.Sprintf("%#02x", d.config.ExpectedID))
	}
	log.Debug("device identity", "id", fmt.Sprintf("%#02x", d.id))

	err = d.bus.Write(ctx, RegBWRate, []byte{byte(d.config.ODR)})
	if err != nil {
		return fail("output data rate", err)
	}
	err = d.bus.Write(ctx, RegDataFormat, []byte{d.dataFormat()})
	if err != nil {
		return fail("data format", err)
	}
	if d.config.DataReady != InterruptNone {
		err = d.enableDataReady(ctx)
		if err != nil {
			return fail("data ready interrupt", err)
		}
	}
	// other POWER_CTL bits may have been set through WriteRegister
	pc, err := d.bus.Read(ctx, RegPowerCtl, 1)
	if err != nil {
		return fail("measurement enable", err)
	}
	err = d.bus.Write(ctx, RegPowerCtl, []byte{pc[0] | PowerMeasure})
	if err != nil {
		return fail("measurement enable", err)
	}
	d.state = StateMeasuring
	log.Debug("measurement enabled", "odr", d.config.ODR, "range", d.config.Range, "resolution", d.config.Resolution)
	return nil
}

func (d *ADXL345) dataFormat() byte {
	var f byte
	if d.config.SelfTest {
		f |= FormatSelfTest
	}
	if d.config.Resolution == FullResolution {
		f |= FormatFullRes
	}
	return f | byte(d.config.Range)&formatRange
}

func (d *ADXL345) enableDataReady(ctx context.Context) error {
	m, err := d.bus.Read(ctx, RegIntMap, 1)
	if err != nil {
		return err
	}
	mapping := m[0] &^ IntDataReady
	if d.config.DataReady == InterruptINT2 {
		mapping |= IntDataReady
	}
	err = d.bus.Write(ctx, RegIntMap, []byte{mapping})
	if err != nil {
		return err
	}
	e, err := d.bus.Read(ctx, RegIntEnable, 1)
	if err != nil {
		return err
	}
	return d.bus.Write(ctx, RegIntEnable, []byte{e[0] | IntDataReady})
}

// Shutdown disables measurement, closes the bus session and releases the
// chip-select line. It is safe to call on a device that was never
// initialized or has already been shut down.
func (d *ADXL345) Shutdown(ctx context.Context) error {
	// shutdown runs on cancellation paths too
	ctx = context.WithoutCancel(ctx)
	var errs []error
	if d.session != nil {
		err := d.bus.Write(ctx, RegPowerCtl, []byte{0x00})
		if err != nil {
			errs = append(errs, fmt.Errorf("could not disable measurement: %w", err))
		}
		err = d.session.Close()
		if err != nil {
			errs = append(errs, fmt.Errorf("could not close bus session: %w", err))
		}
		d.session = nil
		d.bus = nil
	}
	if d.csHeld {
		err := d.cs.Release(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("could not release chip select: %w", err))
		}
		d.csHeld = false
	}
	d.state = StateUninitialized
	return errors.Join(errs...)
}

func (d *ADXL345) measuring() error {
	if d.state != StateMeasuring {
		return fmt.Errorf("device is %s: %w", d.state, adxl345.ErrNotReady)
	}
	return nil
}

// ReadAxisRaw returns the signed sample of one axis.
func (d *ADXL345) ReadAxisRaw(ctx context.Context, axis Axis) (int16, error) {
	if err := d.measuring(); err != nil {
		return 0, err
	}
	if !axis.Valid() {
		return 0, fmt.Errorf("%s: %w", axis, adxl345.ErrInvalidArgument)
	}
	buf, err := d.bus.Read(ctx, axis.register(), 2)
	if err != nil {
		return 0, fmt.Errorf("could not read %s axis: %w", axis, err)
	}
	return combine(buf[0], buf[1]), nil
}

// ReadAxis returns the acceleration along one axis in m/s².
func (d *ADXL345) ReadAxis(ctx context.Context, axis Axis) (float64, error) {
	raw, err := d.ReadAxisRaw(ctx, axis)
	if err != nil {
		return 0, err
	}
	return d.conv.convert(raw), nil
}

// ReadXYZRaw reads all axes in one burst, so they come from the same sample.
func (d *ADXL345) ReadXYZRaw(ctx context.Context) (RawSample, error) {
	if err := d.measuring(); err != nil {
		return RawSample{}, err
	}
	buf, err := d.bus.Read(ctx, RegDataX0, 6)
	if err != nil {
		return RawSample{}, fmt.Errorf("could not read axes: %w", err)
	}
	return RawSample{
		X: combine(buf[0], buf[1]),
		Y: combine(buf[2], buf[3]),
		Z: combine(buf[4], buf[5]),
	}, nil
}

// ReadXYZ is ReadXYZRaw converted to m/s².
func (d *ADXL345) ReadXYZ(ctx context.Context) (Acceleration, error) {
	s, err := d.ReadXYZRaw(ctx)
	if err != nil {
		return Acceleration{}, err
	}
	return d.Convert(s), nil
}

// Convert applies the configured resolution and range to a raw sample.
func (d *ADXL345) Convert(s RawSample) Acceleration {
	return Acceleration{X: d.conv.convert(s.X), Y: d.conv.convert(s.Y), Z: d.conv.convert(s.Z)}
}

// ReadInterruptSource reads INT_SOURCE, which clears latched data-ready.
func (d *ADXL345) ReadInterruptSource(ctx context.Context) (byte, error) {
	if err := d.measuring(); err != nil {
		return 0, err
	}
	buf, err := d.bus.Read(ctx, RegIntSource, 1)
	if err != nil {
		return 0, fmt.Errorf("could not read interrupt source: %w", err)
	}
	return buf[0], nil
}

// ReadRegister reads registers not modeled by the driver. The bus session
// must be open.
func (d *ADXL345) ReadRegister(ctx context.Context, addr byte, length int) ([]byte, error) {
	if d.bus == nil {
		return nil, fmt.Errorf("bus session closed: %w", adxl345.ErrNotReady)
	}
	return d.bus.Read(ctx, addr, length)
}

// WriteRegister writes registers not modeled by the driver. The bus session
// must be open.
func (d *ADXL345) WriteRegister(ctx context.Context, addr byte, payload ...byte) error {
	if d.bus == nil {
		return fmt.Errorf("bus session closed: %w", adxl345.ErrNotReady)
	}
	return d.bus.Write(ctx, addr, payload)
}

// DeviceID returns the identity latched by Init.
func (d *ADXL345) DeviceID() byte {
	return d.id
}

func (d *ADXL345) State() State {
	return d.state
}

func (d *ADXL345) Config() Config {
	return d.config
}

// Sensitivity returns the LSB weight in m/s² used for conversion.
func (d *ADXL345) Sensitivity() float64 {
	if d.conv.resolution == FullResolution {
		return d.conv.sensitivity
	}
	return d.conv.sensitivity * d.conv.multiplier
}

func (d *ADXL345) String() string {
	return fmt.Sprintf("ADXL345{ID:%#02x Range:%s Resolution:%s ODR:%s State:%s}",
		d.id, d.config.Range, d.config.Resolution, d.config.ODR, d.state)
}

// RawSample holds signed samples as reported by the device.
type RawSample struct {
	X int16
	Y int16
	Z int16
}

func (s RawSample) String() string {
	return fmt.Sprintf("X:%d Y:%d Z:%d", s.X, s.Y, s.Z)
}

// Acceleration on the three axes in m/s².
type Acceleration struct {
	X float64
	Y float64
	Z float64
}

func (a Acceleration) String() string {
	return fmt.Sprintf("X:%.3f Y:%.3f Z:%.3f m/s²", a.X, a.Y, a.Z)
}
