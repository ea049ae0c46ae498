package adxl345

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNotReady           = errors.New("device not measuring")
	ErrIdentityMismatch   = errors.New("unexpected device identity")
	ErrAlreadyInitialized = errors.New("device already initialized")
	ErrShortTransfer      = errors.New("short transfer")
)

// BusError reports a failed transaction. Err is the error returned by the
// underlying transfer or chip-select primitive.
type BusError struct {
	Op      string
	Address byte
	Err     error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("bus %s of register %#02x failed: %v", e.Op, e.Address, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}

// InitializationError reports the configuration step that failed.
type InitializationError struct {
	Step string
	Err  error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("initialization failed at %s: %v", e.Step, e.Err)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}
