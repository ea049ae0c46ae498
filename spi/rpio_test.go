package spi

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"periph.io/x/conn/v3/spi"
)

func TestClockBits(t *testing.T) {
	tests := []struct {
		mode       spi.Mode
		cpol, cpha uint8
	}{
		{spi.Mode0, 0, 0},
		{spi.Mode1, 0, 1},
		{spi.Mode2, 1, 0},
		{spi.Mode3, 1, 1},
		{spi.Mode3 | spi.NoCS, 1, 1},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("mode %#x", int(test.mode)), func(t *testing.T) {
			cpol, cpha := clockBits(test.mode)
			assert.Equal(t, test.cpol, cpol)
			assert.Equal(t, test.cpha, cpha)
		})
	}
}

func TestChipSelect(t *testing.T) {
	assert.Equal(t, uint8(0), chipSelect(0, spi.Mode3))
	assert.Equal(t, uint8(1), chipSelect(1, spi.Mode3))
	assert.Equal(t, uint8(2), chipSelect(0, spi.Mode3|spi.NoCS))
	assert.Equal(t, uint8(2), chipSelect(1, spi.Mode3|spi.NoCS))
}
