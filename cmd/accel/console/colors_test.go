package console

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestIdentity(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	assert.Equal(t, "ADXL345 0xe5", Identity("ADXL345", 0xE5, 0xE5))
	assert.Equal(t, "unknown device 0x42 (expected 0xe5)", Identity("ADXL345", 0x42, 0xE5))
	assert.Equal(t, "0x2D POWER_CTL      0x08", RegisterLine(0x2D, "POWER_CTL", 0x08))
}
