package accel

import "fmt"

// Register map. Only RegDeviceID, RegBWRate, RegPowerCtl, RegDataFormat,
// RegIntEnable, RegIntMap, RegIntSource and the data registers are driven by
// ADXL345 itself, the rest is reachable through ReadRegister/WriteRegister.
const (
	RegDeviceID     byte = 0x00 // device ID, 0xE5
	RegThreshTap    byte = 0x1D // tap threshold
	RegOfsX         byte = 0x1E // X-axis offset
	RegOfsY         byte = 0x1F // Y-axis offset
	RegOfsZ         byte = 0x20 // Z-axis offset
	RegDur          byte = 0x21 // tap duration
	RegLatent       byte = 0x22 // tap latency
	RegWindow       byte = 0x23 // tap window
	RegThreshAct    byte = 0x24 // activity threshold
	RegThreshInact  byte = 0x25 // inactivity threshold
	RegTimeInact    byte = 0x26 // inactivity time
	RegActInactCtl  byte = 0x27 // axis enable control for activity and inactivity detection
	RegThreshFF     byte = 0x28 // free-fall threshold
	RegTimeFF       byte = 0x29 // free-fall time
	RegTapAxes      byte = 0x2A // axis control for single tap/double tap
	RegActTapStatus byte = 0x2B // source of single tap/double tap
	RegBWRate       byte = 0x2C // data rate and power mode control
	RegPowerCtl     byte = 0x2D // power-saving features control
	RegIntEnable    byte = 0x2E // interrupt enable control
	RegIntMap       byte = 0x2F // interrupt mapping control
	RegIntSource    byte = 0x30 // source of interrupts
	RegDataFormat   byte = 0x31 // data format control
	RegDataX0       byte = 0x32 // X-axis data 0
	RegDataX1       byte = 0x33 // X-axis data 1
	RegDataY0       byte = 0x34 // Y-axis data 0
	RegDataY1       byte = 0x35 // Y-axis data 1
	RegDataZ0       byte = 0x36 // Z-axis data 0
	RegDataZ1       byte = 0x37 // Z-axis data 1
	RegFIFOCtl      byte = 0x38 // FIFO control
	RegFIFOStatus   byte = 0x39 // FIFO status
)

// POWER_CTL bits
const (
	PowerLink      byte = 1 << 5
	PowerAutoSleep byte = 1 << 4
	PowerMeasure   byte = 1 << 3
	PowerSleep     byte = 1 << 2
)

// DATA_FORMAT bits
const (
	FormatSelfTest byte = 1 << 7
	FormatSPI3Wire byte = 1 << 6
	FormatIntInv   byte = 1 << 5
	FormatFullRes  byte = 1 << 3
	FormatJustify  byte = 1 << 2
	formatRange    byte = 0x03
)

// INT_ENABLE, INT_MAP and INT_SOURCE bits
const (
	IntDataReady  byte = 1 << 7
	IntSingleTap  byte = 1 << 6
	IntDoubleTap  byte = 1 << 5
	IntActivity   byte = 1 << 4
	IntInactivity byte = 1 << 3
	IntFreeFall   byte = 1 << 2
	IntWatermark  byte = 1 << 1
	IntOverrun    byte = 1 << 0
)

var registerNames = map[byte]string{
	RegDeviceID:     "DEVID",
	RegThreshTap:    "THRESH_TAP",
	RegOfsX:         "OFSX",
	RegOfsY:         "OFSY",
	RegOfsZ:         "OFSZ",
	RegDur:          "DUR",
	RegLatent:       "LATENT",
	RegWindow:       "WINDOW",
	RegThreshAct:    "THRESH_ACT",
	RegThreshInact:  "THRESH_INACT",
	RegTimeInact:    "TIME_INACT",
	RegActInactCtl:  "ACT_INACT_CTL",
	RegThreshFF:     "THRESH_FF",
	RegTimeFF:       "TIME_FF",
	RegTapAxes:      "TAP_AXES",
	RegActTapStatus: "ACT_TAP_STATUS",
	RegBWRate:       "BW_RATE",
	RegPowerCtl:     "POWER_CTL",
	RegIntEnable:    "INT_ENABLE",
	RegIntMap:       "INT_MAP",
	RegIntSource:    "INT_SOURCE",
	RegDataFormat:   "DATA_FORMAT",
	RegDataX0:       "DATAX0",
	RegDataX1:       "DATAX1",
	RegDataY0:       "DATAY0",
	RegDataY1:       "DATAY1",
	RegDataZ0:       "DATAZ0",
	RegDataZ1:       "DATAZ1",
	RegFIFOCtl:      "FIFO_CTL",
	RegFIFOStatus:   "FIFO_STATUS",
}

// RegisterName returns the datasheet name of a register, 0x01-0x1C are reserved.
func RegisterName(addr byte) string {
	if n, ok := registerNames[addr]; ok {
		return n
	}
	return fmt.Sprintf("RESERVED_%02X", addr)
}
