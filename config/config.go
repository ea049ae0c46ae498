// Package config holds the YAML file used by the accel command to locate the
// device and set it up.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/adxl345/accel"
)

// Build metadata, set at link time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// DefaultPath is looked up when no file is given on the command line.
const DefaultPath = "adxl345.yml"

type Backend string

const (
	BackendPeriph Backend = "periph"
	BackendRPIO   Backend = "rpio"
	BackendGobot  Backend = "gobot"
	BackendSim    Backend = "sim"
)

// Gobot platforms.
const (
	PlatformRaspi  = "raspi"
	PlatformNanoPi = "nanopi"
)

// Speed is a bus clock written as "5MHz" or "400kHz".
type Speed physic.Frequency

func (s Speed) MarshalText() ([]byte, error) {
	return []byte(physic.Frequency(s).String()), nil
}

func (s *Speed) UnmarshalText(text []byte) error {
	var f physic.Frequency
	if err := f.Set(string(text)); err != nil {
		return fmt.Errorf("invalid bus speed %q: %w", text, err)
	}
	*s = Speed(f)
	return nil
}

type Bus struct {
	Backend Backend `yaml:"backend"`
	// Device is the periph port name, e.g. SPI0.0. Empty picks the first port.
	Device string `yaml:"device,omitempty"`
	// Platform selects the gobot adaptor.
	Platform string `yaml:"platform,omitempty"`
	Number   int    `yaml:"number"`
	Chip     int    `yaml:"chip"`
	Speed    Speed  `yaml:"speed"`
}

// Line names a host GPIO: a periph name (GPIO8) or a BCM number for rpio.
type Line struct {
	Pin string `yaml:"pin,omitempty"`
}

type File struct {
	Bus        Bus          `yaml:"bus"`
	ChipSelect Line         `yaml:"chipSelect"`
	DataReady  Line         `yaml:"dataReady"`
	Device     accel.Config `yaml:"device"`
}

func Default() *File {
	return &File{
		Bus: Bus{
			Backend: BackendPeriph,
			Speed:   Speed(accel.DefaultSpeed),
		},
		Device: accel.DefaultConfig(),
	}
}

// Load reads the file at path on top of Default.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	f := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("could not decode config: %w", err)
	}
	return f, nil
}

func Write(w io.Writer, f *File) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("could not encode config: %w", err)
	}
	return enc.Close()
}

// Validate returns advisories the device will work with and the errors that
// make the file unusable.
func (f *File) Validate() (warnings []string, err error) {
	var errs []error
	switch f.Bus.Backend {
	case BackendPeriph, BackendRPIO, BackendSim:
	case BackendGobot:
		if f.Bus.Platform != PlatformRaspi && f.Bus.Platform != PlatformNanoPi {
			errs = append(errs, fmt.Errorf("unknown gobot platform %q", f.Bus.Platform))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown bus backend %q", f.Bus.Backend))
	}
	speed := physic.Frequency(f.Bus.Speed)
	if speed <= 0 {
		errs = append(errs, fmt.Errorf("bus speed must be positive, got %s", speed))
	} else if speed > accel.DefaultSpeed {
		warnings = append(warnings, fmt.Sprintf("bus speed %s above the %s device maximum", speed, accel.DefaultSpeed))
	}
	if !f.Device.ODR.Valid() {
		errs = append(errs, fmt.Errorf("invalid output data rate %#x", byte(f.Device.ODR)))
	} else if minSpeed := accel.MinimumBusSpeed(f.Device.ODR); speed > 0 && speed < minSpeed {
		warnings = append(warnings, fmt.Sprintf("bus speed %s below %s recommended for %s", speed, minSpeed, f.Device.ODR))
	}
	if !f.Device.Range.Valid() {
		errs = append(errs, fmt.Errorf("invalid range %#x", byte(f.Device.Range)))
	}
	if f.Device.ChipSelect == accel.ChipSelectSoftware && f.ChipSelect.Pin == "" {
		errs = append(errs, errors.New("software chip select requires chipSelect.pin"))
	}
	if f.Device.DataReady != accel.InterruptNone && f.DataReady.Pin == "" {
		warnings = append(warnings, fmt.Sprintf("data ready routed to %s but dataReady.pin not set, watch is unavailable", f.Device.DataReady))
	}
	if f.Device.Resolution == accel.Fixed10Bit && f.Device.Sensitivity == 0 {
		warnings = append(warnings, "no sensitivity set for 10 bit resolution, full resolution weight is used")
	}
	return warnings, errors.Join(errs...)
}

// Options turns the file into driver options, the bus speed included.
func (f *File) Options() []accel.Option {
	return []accel.Option{
		accel.WithConfig(f.Device),
		accel.WithSpeed(physic.Frequency(f.Bus.Speed)),
	}
}
