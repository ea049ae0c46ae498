package regbus

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/adxl345"
	"github.com/mklimuk/adxl345/sim"
	"github.com/mklimuk/adxl345/snsctx"
)

// MockSession is a mock implementation of adxl345.SPISession using testify/mock
type MockSession struct {
	mock.Mock
}

func (m *MockSession) Transfer(ctx context.Context, tx []byte, speed physic.Frequency) ([]byte, error) {
	args := m.Called(ctx, tx, speed)
	rx, _ := args.Get(0).([]byte)
	return rx, args.Error(1)
}

func (m *MockSession) Close() error {
	return m.Called().Error(0)
}

func TestHeader(t *testing.T) {
	for addr := byte(0); addr <= AddressMask; addr++ {
		for _, n := range []int{1, 2, 6, 63} {
			mb := byte(0)
			if n > 1 {
				mb = 0x40
			}
			assert.Equal(t, 0x80|mb|addr, Header(OpRead, addr, n), "read addr %#x n %d", addr, n)
			assert.Equal(t, mb|addr, Header(OpWrite, addr, n), "write addr %#x n %d", addr, n)
		}
	}
}

func TestBus_Read(t *testing.T) {
	tests := []struct {
		name     string
		address  byte
		length   int
		tx       []byte
		rx       []byte
		expected []byte
	}{
		{
			name:     "single byte",
			address:  0x00,
			length:   1,
			tx:       []byte{0x80, 0xFF},
			rx:       []byte{0x00, 0xE5},
			expected: []byte{0xE5},
		},
		{
			name:     "burst",
			address:  0x32,
			length:   6,
			tx:       []byte{0xF2, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
			rx:       []byte{0xAA, 0x10, 0x00, 0x20, 0x00, 0x30, 0x00},
			expected: []byte{0x10, 0x00, 0x20, 0x00, 0x30, 0x00},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			session := &MockSession{}
			session.On("Transfer", mock.Anything, test.tx, physic.Frequency(0)).Return(test.rx, nil).Once()
			b := New(session)
			data, err := b.Read(context.Background(), test.address, test.length)
			require.NoError(t, err)
			assert.Equal(t, test.expected, data)
			session.AssertExpectations(t)
		})
	}
}

func TestBus_Write(t *testing.T) {
	session := &MockSession{}
	session.On("Transfer", mock.Anything, []byte{0x2D, 0x08}, physic.Frequency(0)).Return([]byte{0, 0}, nil).Once()
	session.On("Transfer", mock.Anything, []byte{0x5E, 0x01, 0x02, 0x03}, physic.Frequency(0)).Return([]byte{0, 0, 0, 0}, nil).Once()
	b := New(session)
	require.NoError(t, b.Write(context.Background(), 0x2D, []byte{0x08}))
	require.NoError(t, b.Write(context.Background(), 0x1E, []byte{0x01, 0x02, 0x03}))
	session.AssertExpectations(t)
}

func TestBus_SpeedOverride(t *testing.T) {
	session := &MockSession{}
	session.On("Transfer", mock.Anything, mock.Anything, 2*physic.MegaHertz).Return([]byte{0, 0xE5}, nil).Once()
	b := New(session, WithSpeed(2*physic.MegaHertz))
	_, err := b.Read(context.Background(), 0x00, 1)
	require.NoError(t, err)
	session.AssertExpectations(t)
}

func TestBus_InvalidArguments(t *testing.T) {
	session := &MockSession{}
	b := New(session)
	ctx := context.Background()

	_, err := b.Read(ctx, 0x00, 0)
	assert.ErrorIs(t, err, adxl345.ErrInvalidArgument)
	_, err = b.Read(ctx, 0x40, 1)
	assert.ErrorIs(t, err, adxl345.ErrInvalidArgument)
	err = b.Write(ctx, 0x2D, nil)
	assert.ErrorIs(t, err, adxl345.ErrInvalidArgument)
	err = b.Write(ctx, 0x2D, []byte{})
	assert.ErrorIs(t, err, adxl345.ErrInvalidArgument)

	session.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything, mock.Anything)
}

func TestBus_TransferError(t *testing.T) {
	errWire := errors.New("wire error")
	session := &MockSession{}
	session.On("Transfer", mock.Anything, mock.Anything, mock.Anything).Return(nil, errWire)
	b := New(session)

	_, err := b.Read(context.Background(), 0x32, 2)
	var busErr *adxl345.BusError
	require.ErrorAs(t, err, &busErr)
	assert.Equal(t, "read", busErr.Op)
	assert.Equal(t, byte(0x32), busErr.Address)
	assert.ErrorIs(t, err, errWire)

	err = b.Write(context.Background(), 0x2C, []byte{0x0A})
	require.ErrorAs(t, err, &busErr)
	assert.Equal(t, "write", busErr.Op)
}

func TestBus_ShortTransfer(t *testing.T) {
	session := &MockSession{}
	session.On("Transfer", mock.Anything, mock.Anything, mock.Anything).Return([]byte{0x00}, nil)
	b := New(session)
	_, err := b.Read(context.Background(), 0x32, 2)
	assert.ErrorIs(t, err, adxl345.ErrShortTransfer)
}

func TestBus_ChipSelectBracketsTransfer(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"transfer ok", nil},
		{"transfer failed", errors.New("wire error")},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			line := &sim.Line{}
			session := &MockSession{}
			session.On("Transfer", mock.Anything, mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) {
					// the line must be asserted while the bytes are clocked
					assert.Equal(t, gpio.Low, line.Level())
					events := line.Events()
					assert.Equal(t, sim.EventLow, events[len(events)-1])
				}).
				Return([]byte{0x00, 0x00}, test.err)
			b := New(session, WithChipSelect(line))
			ctx := context.Background()

			_, rerr := b.Read(ctx, 0x00, 1)
			werr := b.Write(ctx, 0x2D, []byte{0x08})
			if test.err != nil {
				assert.ErrorIs(t, rerr, test.err)
				assert.ErrorIs(t, werr, test.err)
			} else {
				assert.NoError(t, rerr)
				assert.NoError(t, werr)
			}
			assert.Equal(t, []string{sim.EventLow, sim.EventHigh, sim.EventLow, sim.EventHigh}, line.Events())
			assert.Equal(t, gpio.High, line.Level())
		})
	}
}

func TestBus_ChipSelectReleasedOnCancelledContext(t *testing.T) {
	line := &sim.Line{}
	dev := sim.NewDevice()
	session, err := dev.Open(context.Background(), physic.MegaHertz, 0)
	require.NoError(t, err)
	b := New(session, WithChipSelect(line))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.Read(ctx, 0x00, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{sim.EventLow, sim.EventHigh}, line.Events())
}

func TestBus_VerboseTrace(t *testing.T) {
	dev := sim.NewDevice()
	session, err := dev.Open(context.Background(), physic.MegaHertz, 0)
	require.NoError(t, err)
	b := New(session)
	ctx := snsctx.SetVerbose(context.Background(), true)
	data, err := b.Read(ctx, 0x00, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{sim.Identity}, data, fmt.Sprintf("% x", data))
}
