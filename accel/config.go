package accel

import (
	"errors"
	"fmt"

	"github.com/mklimuk/adxl345"
	"periph.io/x/conn/v3/physic"
)

const (
	// StandardGravity is the conversion factor from g to m/s².
	StandardGravity = 9.81
	// SensitivityFullResolution is the LSB weight in full resolution mode and
	// the typical LSB weight of the 2g range, in m/s².
	SensitivityFullResolution = 3.9e-3 * StandardGravity

	// ExpectedDeviceID is the content of the DEVID register.
	ExpectedDeviceID byte = 0xE5

	// DefaultSpeed is the highest SPI clock the device supports.
	DefaultSpeed = 5 * physic.MegaHertz
)

// Config describes how the device is set up by Init. The bus clock must
// respect MinimumBusSpeed for the selected ODR.
type Config struct {
	Speed          physic.Frequency `yaml:"-"`
	ODR            ODR              `yaml:"odr"`
	Range          Range            `yaml:"range"`
	Resolution     Resolution       `yaml:"resolution"`
	Sensitivity    float64          `yaml:"sensitivity"`
	ChipSelect     ChipSelectMode   `yaml:"chipSelect"`
	StrictIdentity bool             `yaml:"strictIdentity"`
	ExpectedID     byte             `yaml:"expectedId"`
	SelfTest       bool             `yaml:"selfTest"`
	DataReady      InterruptPin     `yaml:"dataReady"`
}

// DefaultConfig is a 100Hz, ±2g, full resolution setup with hardware chip-select.
func DefaultConfig() Config {
	return Config{
		Speed:       DefaultSpeed,
		ODR:         ODR100Hz,
		Range:       Range2G,
		Resolution:  FullResolution,
		Sensitivity: SensitivityFullResolution,
		ChipSelect:  ChipSelectHardware,
		ExpectedID:  ExpectedDeviceID,
	}
}

// Validate rejects codes that do not fit their register fields.
func (c Config) Validate() error {
	var errs []error
	if !c.ODR.Valid() {
		errs = append(errs, fmt.Errorf("output data rate code %#x: %w", byte(c.ODR), adxl345.ErrInvalidArgument))
	}
	if !c.Range.Valid() {
		errs = append(errs, fmt.Errorf("range code %#x: %w", byte(c.Range), adxl345.ErrInvalidArgument))
	}
	if c.Resolution > Fixed10Bit {
		errs = append(errs, fmt.Errorf("resolution %d: %w", byte(c.Resolution), adxl345.ErrInvalidArgument))
	}
	if c.ChipSelect > ChipSelectSoftware {
		errs = append(errs, fmt.Errorf("chip select mode %d: %w", byte(c.ChipSelect), adxl345.ErrInvalidArgument))
	}
	if c.DataReady > InterruptINT2 {
		errs = append(errs, fmt.Errorf("interrupt pin %d: %w", byte(c.DataReady), adxl345.ErrInvalidArgument))
	}
	if c.Speed <= 0 {
		errs = append(errs, fmt.Errorf("bus speed %s: %w", c.Speed, adxl345.ErrInvalidArgument))
	}
	return errors.Join(errs...)
}

type Option func(*ADXL345)

// WithConfig replaces the whole configuration, later options still apply.
func WithConfig(cfg Config) Option {
	return func(d *ADXL345) {
		d.config = cfg
	}
}

func WithSpeed(speed physic.Frequency) Option {
	return func(d *ADXL345) {
		d.config.Speed = speed
	}
}

func WithODR(odr ODR) Option {
	return func(d *ADXL345) {
		d.config.ODR = odr
	}
}

func WithRange(r Range) Option {
	return func(d *ADXL345) {
		d.config.Range = r
	}
}

func WithResolution(r Resolution) Option {
	return func(d *ADXL345) {
		d.config.Resolution = r
	}
}

// WithSensitivity sets the LSB weight in m/s² used in Fixed10Bit mode.
func WithSensitivity(s float64) Option {
	return func(d *ADXL345) {
		d.config.Sensitivity = s
	}
}

// WithChipSelect switches to software chip-select driven through line.
func WithChipSelect(line adxl345.OutputLine) Option {
	return func(d *ADXL345) {
		d.cs = line
		d.config.ChipSelect = ChipSelectSoftware
	}
}

// WithStrictIdentity makes Init fail when DEVID differs from expected.
func WithStrictIdentity(expected byte) Option {
	return func(d *ADXL345) {
		d.config.StrictIdentity = true
		d.config.ExpectedID = expected
	}
}

func WithDataReadyInterrupt(pin InterruptPin) Option {
	return func(d *ADXL345) {
		d.config.DataReady = pin
	}
}

func WithSelfTest(enabled bool) Option {
	return func(d *ADXL345) {
		d.config.SelfTest = enabled
	}
}

// converter turns raw samples into m/s².
type converter struct {
	resolution  Resolution
	multiplier  float64
	sensitivity float64
}

func newConverter(cfg Config) converter {
	c := converter{resolution: cfg.Resolution, multiplier: cfg.Range.Multiplier(), sensitivity: cfg.Sensitivity}
	if cfg.Resolution == FullResolution || c.sensitivity == 0 {
		c.sensitivity = SensitivityFullResolution
	}
	return c
}

func (c converter) convert(raw int16) float64 {
	if c.resolution == FullResolution {
		return c.sensitivity * float64(raw)
	}
	return c.sensitivity * c.multiplier * float64(raw)
}

// combine assembles a sample sent low byte first.
func combine(low, high byte) int16 {
	return int16(uint16(high)<<8 | uint16(low))
}
