// Package regbus encodes ADXL345 register transactions for a SPI session.
//
// A transaction is one header byte followed by the payload (writes) or by
// filler bytes clocked out while the device answers (reads):
//
//	bit 7   R/W  1 = read, 0 = write
//	bit 6   MB   1 = more than one data byte, the device auto-increments the address
//	bit 5-0      register address
package regbus

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/mklimuk/adxl345"
	"github.com/mklimuk/adxl345/snsctx"
	"periph.io/x/conn/v3/physic"
)

type Op byte

const (
	OpWrite Op = 0
	OpRead  Op = 1
)

func (o Op) String() string {
	if o == OpRead {
		return "read"
	}
	return "write"
}

const (
	rwShift = 7
	mbShift = 6

	// AddressMask covers the 6 address bits of the header.
	AddressMask = 0x3F

	filler = 0xFF
)

// Header builds the transaction header for n data bytes.
func Header(op Op, address byte, n int) byte {
	var mb byte
	if n > 1 {
		mb = 1
	}
	return byte(op)<<rwShift | mb<<mbShift | address&AddressMask
}

// Bus executes register transactions. It performs no locking, callers
// sharing a Bus between goroutines must serialize access.
type Bus struct {
	session adxl345.SPISession
	cs      adxl345.OutputLine
	speed   physic.Frequency
}

type Option func(*Bus)

// WithChipSelect drives cs low for the duration of every transfer.
func WithChipSelect(cs adxl345.OutputLine) Option {
	return func(b *Bus) {
		b.cs = cs
	}
}

// WithSpeed requests a per-transfer clock override.
func WithSpeed(speed physic.Frequency) Option {
	return func(b *Bus) {
		b.speed = speed
	}
}

func New(session adxl345.SPISession, opts ...Option) *Bus {
	b := &Bus{session: session}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Read returns length bytes starting at address.
func (b *Bus) Read(ctx context.Context, address byte, length int) ([]byte, error) {
	if length < 1 {
		return nil, fmt.Errorf("read of %d bytes: %w", length, adxl345.ErrInvalidArgument)
	}
	if address > AddressMask {
		return nil, fmt.Errorf("register %#02x out of range: %w", address, adxl345.ErrInvalidArgument)
	}
	tx := make([]byte, length+1)
	tx[0] = Header(OpRead, address, length)
	for i := 1; i < len(tx); i++ {
		tx[i] = filler
	}
	rx, err := b.exchange(ctx, OpRead, address, tx)
	if err != nil {
		return nil, err
	}
	// first byte was shifted in while the header went out
	return rx[1:], nil
}

// Write sends payload starting at address.
func (b *Bus) Write(ctx context.Context, address byte, payload []byte) error {
	if len(payload) == 0 {
		return fmt.Errorf("empty write: %w", adxl345.ErrInvalidArgument)
	}
	if address > AddressMask {
		return fmt.Errorf("register %#02x out of range: %w", address, adxl345.ErrInvalidArgument)
	}
	tx := make([]byte, 0, len(payload)+1)
	tx = append(tx, Header(OpWrite, address, len(payload)))
	tx = append(tx, payload...)
	_, err := b.exchange(ctx, OpWrite, address, tx)
	return err
}

func (b *Bus) exchange(ctx context.Context, op Op, address byte, tx []byte) (rx []byte, err error) {
	if b.cs != nil {
		if err := b.cs.Low(ctx); err != nil {
			_ = b.cs.High(context.WithoutCancel(ctx))
			return nil, &adxl345.BusError{Op: op.String(), Address: address, Err: fmt.Errorf("chip select: %w", err)}
		}
		defer func() {
			// the line must return to idle even if the caller gave up
			herr := b.cs.High(context.WithoutCancel(ctx))
			if herr != nil && err == nil {
				err = &adxl345.BusError{Op: op.String(), Address: address, Err: fmt.Errorf("chip select release: %w", herr)}
			}
		}()
	}
	rx, err = b.session.Transfer(ctx, tx, b.speed)
	if err != nil {
		return nil, &adxl345.BusError{Op: op.String(), Address: address, Err: err}
	}
	if len(rx) != len(tx) {
		return nil, &adxl345.BusError{Op: op.String(), Address: address,
			Err: fmt.Errorf("%w: sent %d bytes, received %d", adxl345.ErrShortTransfer, len(tx), len(rx))}
	}
	if snsctx.IsVerbose(ctx) {
		snsctx.Logger(ctx).Debug("spi transaction", "op", op, "register", fmt.Sprintf("%#02x", address),
			"tx", hex.EncodeToString(tx), "rx", hex.EncodeToString(rx))
	}
	return rx, nil
}
