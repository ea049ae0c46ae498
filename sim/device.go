// Package sim emulates an ADXL345 at the SPI wire level.
//
// Device decodes transaction headers the way the chip does, keeps a 64 byte
// register file and auto-increments the address for multi-byte transfers.
// It can be used anywhere a real SPI port is expected, which makes it
// suitable for tests and for running the CLI without hardware.
//
// Example usage:
//
//	dev := sim.NewDevice()
//	dev.SetSample(0, 0, 256) // 1g on Z in full resolution
//	d := accel.NewADXL345(dev)
//	err := d.Init(ctx)
package sim

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/mklimuk/adxl345"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

const (
	regDeviceID = 0x00
	regDataX0   = 0x32
	regIntSrc   = 0x30
	regFIFOStat = 0x39
	registers   = 0x40

	// Identity is the value of the device ID register.
	Identity = 0xE5

	readBit      = 0x80
	multiByteBit = 0x40
	addressMask  = 0x3F
)

var ErrClosed = errors.New("sim: session closed")

var _ adxl345.SPIPort = &Device{}
var _ adxl345.SPISession = &Device{}

// FailFunc decides whether a transfer fails. It receives the outgoing bytes.
type FailFunc func(tx []byte) error

// Transaction is a decoded transfer seen by the device.
type Transaction struct {
	Read    bool
	Address byte
	Data    []byte // written payload or returned bytes
}

type Device struct {
	mx     sync.Mutex
	regs   [registers]byte
	open   bool
	opened int
	speed  physic.Frequency
	mode   spi.Mode
	fail   FailFunc
	log    []Transaction
}

func NewDevice() *Device {
	d := &Device{}
	d.regs[regDeviceID] = Identity
	// reset values per datasheet
	d.regs[0x2C] = 0x0A
	d.regs[regIntSrc] = 0x02
	return d
}

// Open starts a session. Only one session may be open at a time.
func (d *Device) Open(ctx context.Context, speed physic.Frequency, mode spi.Mode) (adxl345.SPISession, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.open {
		return nil, fmt.Errorf("sim: session already open")
	}
	d.open = true
	d.opened++
	d.speed = speed
	d.mode = mode
	return d, nil
}

func (d *Device) Close() error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if !d.open {
		return ErrClosed
	}
	d.open = false
	return nil
}

func (d *Device) Transfer(ctx context.Context, tx []byte, speed physic.Frequency) ([]byte, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	if !d.open {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.fail != nil {
		if err := d.fail(tx); err != nil {
			return nil, err
		}
	}
	rx := make([]byte, len(tx))
	if len(tx) < 2 {
		return rx, nil
	}
	header := tx[0]
	addr := header & addressMask
	step := byte(0)
	if header&multiByteBit != 0 {
		step = 1
	}
	t := Transaction{Read: header&readBit != 0, Address: addr, Data: make([]byte, 0, len(tx)-1)}
	for i := 1; i < len(tx); i++ {
		a := addr & addressMask
		if t.Read {
			rx[i] = d.regs[a]
			t.Data = append(t.Data, rx[i])
		} else {
			d.write(a, tx[i])
			t.Data = append(t.Data, tx[i])
		}
		addr += step
	}
	d.log = append(d.log, t)
	return rx, nil
}

func (d *Device) write(addr, value byte) {
	switch {
	case addr == regDeviceID, addr == regIntSrc, addr == regFIFOStat:
		// read-only
	case addr >= regDataX0 && addr < regDataX0+6:
		// read-only
	default:
		d.regs[addr] = value
	}
}

// SetSample stores raw axis values in the data registers, low byte first.
func (d *Device) SetSample(x, y, z int16) {
	d.mx.Lock()
	defer d.mx.Unlock()
	binary.LittleEndian.PutUint16(d.regs[regDataX0:], uint16(x))
	binary.LittleEndian.PutUint16(d.regs[regDataX0+2:], uint16(y))
	binary.LittleEndian.PutUint16(d.regs[regDataX0+4:], uint16(z))
}

// SetRegister overrides a register, including read-only ones.
func (d *Device) SetRegister(addr, value byte) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.regs[addr&addressMask] = value
}

func (d *Device) Register(addr byte) byte {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.regs[addr&addressMask]
}

// FailWhen installs a failure hook, nil removes it.
func (d *Device) FailWhen(f FailFunc) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.fail = f
}

// Transactions returns the decoded transfers since the device was created.
func (d *Device) Transactions() []Transaction {
	d.mx.Lock()
	defer d.mx.Unlock()
	out := make([]Transaction, len(d.log))
	copy(out, d.log)
	return out
}

// Writes returns the written transactions addressed to addr.
func (d *Device) Writes(addr byte) []Transaction {
	var out []Transaction
	for _, t := range d.Transactions() {
		if !t.Read && t.Address == addr {
			out = append(out, t)
		}
	}
	return out
}

func (d *Device) IsOpen() bool {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.open
}

// Sessions returns how many times Open succeeded.
func (d *Device) Sessions() int {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.opened
}

// Settings returns the clock and mode of the last opened session.
func (d *Device) Settings() (physic.Frequency, spi.Mode) {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.speed, d.mode
}
