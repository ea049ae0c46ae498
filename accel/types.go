package accel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mklimuk/adxl345"
	"periph.io/x/conn/v3/physic"
)

// ODR is the 4 bit output data rate code of BW_RATE.
type ODR byte

const (
	ODR0Hz10 ODR = iota
	ODR0Hz20
	ODR0Hz39
	ODR0Hz78
	ODR1Hz56
	ODR3Hz13
	ODR6Hz25
	ODR12Hz5
	ODR25Hz
	ODR50Hz
	ODR100Hz
	ODR200Hz
	ODR400Hz
	ODR800Hz
	ODR1600Hz
	ODR3200Hz
)

var odrRates = [...]struct {
	label string
	freq  physic.Frequency
}{
	{"0.10Hz", 100 * physic.MilliHertz},
	{"0.20Hz", 200 * physic.MilliHertz},
	{"0.39Hz", 390 * physic.MilliHertz},
	{"0.78Hz", 780 * physic.MilliHertz},
	{"1.56Hz", 1560 * physic.MilliHertz},
	{"3.13Hz", 3130 * physic.MilliHertz},
	{"6.25Hz", 6250 * physic.MilliHertz},
	{"12.5Hz", 12500 * physic.MilliHertz},
	{"25Hz", 25 * physic.Hertz},
	{"50Hz", 50 * physic.Hertz},
	{"100Hz", 100 * physic.Hertz},
	{"200Hz", 200 * physic.Hertz},
	{"400Hz", 400 * physic.Hertz},
	{"800Hz", 800 * physic.Hertz},
	{"1600Hz", 1600 * physic.Hertz},
	{"3200Hz", 3200 * physic.Hertz},
}

func (o ODR) Valid() bool {
	return int(o) < len(odrRates)
}

// Frequency returns the nominal output data rate.
func (o ODR) Frequency() physic.Frequency {
	if !o.Valid() {
		return 0
	}
	return odrRates[o].freq
}

func (o ODR) String() string {
	if !o.Valid() {
		return fmt.Sprintf("ODR(%#x)", byte(o))
	}
	return odrRates[o].label
}

func (o ODR) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("odr code %#x: %w", byte(o), adxl345.ErrInvalidArgument)
	}
	return []byte(o.String()), nil
}

// UnmarshalText accepts datasheet labels ("100Hz", "0.39Hz"), any frequency
// periph can parse that matches a rate exactly, or the raw 4 bit code ("0xA").
func (o *ODR) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	for i, r := range odrRates {
		if strings.EqualFold(s, r.label) || strings.EqualFold(s+"Hz", r.label) {
			*o = ODR(i)
			return nil
		}
	}
	if code, err := strconv.ParseUint(s, 0, 8); err == nil && strings.HasPrefix(strings.ToLower(s), "0x") {
		if code < uint64(len(odrRates)) {
			*o = ODR(code)
			return nil
		}
	}
	var f physic.Frequency
	if err := f.Set(s); err == nil {
		for i, r := range odrRates {
			if r.freq == f {
				*o = ODR(i)
				return nil
			}
		}
	}
	return fmt.Errorf("unknown output data rate %q: %w", s, adxl345.ErrInvalidArgument)
}

// MinimumBusSpeed returns the lowest SPI clock the datasheet recommends for
// the rate. Rates of 800Hz and more need 400kHz, between 200Hz and 800Hz the
// requirement scales linearly down to 100kHz. Slower rates have no constraint.
// The driver does not enforce it.
func MinimumBusSpeed(o ODR) physic.Frequency {
	f := o.Frequency()
	switch {
	case f >= 800*physic.Hertz:
		return 400 * physic.KiloHertz
	case f >= 200*physic.Hertz:
		return f / physic.Hertz * 500 * physic.Hertz
	default:
		return 0
	}
}

// Range is the 2 bit measurement range code of DATA_FORMAT.
type Range byte

const (
	Range2G Range = iota
	Range4G
	Range8G
	Range16G
)

var rangeLabels = [...]string{"2g", "4g", "8g", "16g"}

func (r Range) Valid() bool {
	return int(r) < len(rangeLabels)
}

// Multiplier is the LSB weight relative to the 2g range.
func (r Range) Multiplier() float64 {
	return float64(int(1) << r)
}

func (r Range) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Range(%d)", byte(r))
	}
	return "±" + rangeLabels[r]
}

func (r Range) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("range code %d: %w", byte(r), adxl345.ErrInvalidArgument)
	}
	return []byte(rangeLabels[r]), nil
}

func (r *Range) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(string(text)), "±"))
	for i, l := range rangeLabels {
		if s == l || s+"g" == l {
			*r = Range(i)
			return nil
		}
	}
	return fmt.Errorf("unknown range %q: %w", string(text), adxl345.ErrInvalidArgument)
}

type Resolution byte

const (
	// FullResolution keeps the LSB weight at 3.9mg whatever the range.
	FullResolution Resolution = iota
	// Fixed10Bit uses 10 bit samples, the LSB weight doubles with every range step.
	Fixed10Bit
)

func (r Resolution) String() string {
	switch r {
	case FullResolution:
		return "full"
	case Fixed10Bit:
		return "10bit"
	default:
		return fmt.Sprintf("Resolution(%d)", byte(r))
	}
}

func (r Resolution) MarshalText() ([]byte, error) {
	if r > Fixed10Bit {
		return nil, fmt.Errorf("resolution %d: %w", byte(r), adxl345.ErrInvalidArgument)
	}
	return []byte(r.String()), nil
}

func (r *Resolution) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "full", "full-resolution", "fullres":
		*r = FullResolution
	case "10bit", "10-bit", "fixed", "fixed-10bit":
		*r = Fixed10Bit
	default:
		return fmt.Errorf("unknown resolution %q: %w", string(text), adxl345.ErrInvalidArgument)
	}
	return nil
}

type ChipSelectMode byte

const (
	// ChipSelectHardware lets the SPI controller drive its own CS signal.
	ChipSelectHardware ChipSelectMode = iota
	// ChipSelectSoftware drives an OutputLine around every transaction.
	ChipSelectSoftware
)

func (m ChipSelectMode) String() string {
	if m == ChipSelectSoftware {
		return "software"
	}
	return "hardware"
}

func (m ChipSelectMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *ChipSelectMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "hardware", "hw", "":
		*m = ChipSelectHardware
	case "software", "sw":
		*m = ChipSelectSoftware
	default:
		return fmt.Errorf("unknown chip select mode %q: %w", string(text), adxl345.ErrInvalidArgument)
	}
	return nil
}

// InterruptPin selects where the data-ready interrupt is routed.
type InterruptPin byte

const (
	InterruptNone InterruptPin = iota
	InterruptINT1
	InterruptINT2
)

func (p InterruptPin) String() string {
	switch p {
	case InterruptINT1:
		return "int1"
	case InterruptINT2:
		return "int2"
	default:
		return "none"
	}
}

func (p InterruptPin) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *InterruptPin) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "none", "off", "":
		*p = InterruptNone
	case "int1", "1":
		*p = InterruptINT1
	case "int2", "2":
		*p = InterruptINT2
	default:
		return fmt.Errorf("unknown interrupt pin %q: %w", string(text), adxl345.ErrInvalidArgument)
	}
	return nil
}

type Axis byte

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) register() byte {
	return RegDataX0 + 2*byte(a)
}

func (a Axis) Valid() bool {
	return a <= AxisZ
}

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	default:
		return fmt.Sprintf("Axis(%d)", byte(a))
	}
}

func (a *Axis) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "x":
		*a = AxisX
	case "y":
		*a = AxisY
	case "z":
		*a = AxisZ
	default:
		return fmt.Errorf("unknown axis %q: %w", string(text), adxl345.ErrInvalidArgument)
	}
	return nil
}
