package console

import (
	"fmt"

	"github.com/fatih/color"
)

// Available ANSI colors
var (
	Yellow = color.New(color.FgYellow).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
	White  = color.New(color.FgHiWhite).SprintFunc()
	Bold   = color.New(color.Bold).SprintFunc()
	Faint  = color.New(color.Faint).SprintFunc()
)

// Identity renders a device ID, green when it is the expected one.
func Identity(name string, id, expected byte) string {
	if id == expected {
		return Green(fmt.Sprintf("%s 0x%02x", name, id))
	}
	return fmt.Sprintf("%s (expected 0x%02x)", Yellow(fmt.Sprintf("unknown device 0x%02x", id)), expected)
}

// RegisterLine renders one register dump row: address, name and value.
func RegisterLine(addr byte, name string, value byte) string {
	return fmt.Sprintf("0x%02X %-14s %s", addr, Faint(name), White(fmt.Sprintf("0x%02X", value)))
}
