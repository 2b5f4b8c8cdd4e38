package ui

import (
	"fmt"

	"github.com/groblegark/lifeband/internal/model"
)

// ANSI256 color codes.
const (
	colorSafe      = 71  // green
	colorFall      = 178 // amber
	colorSOS       = 160 // red
	colorAmbulance = 127 // magenta
	colorAccent    = 74  // blue
	colorMuted     = 245 // medium gray
)

var noColor bool

// RenderStatus returns the device status colored by severity.
func RenderStatus(s model.DeviceStatus) string {
	if noColor {
		return s.String()
	}
	var code int
	switch s {
	case model.StatusSafe:
		code = colorSafe
	case model.StatusFall:
		code = colorFall
	case model.StatusSOS:
		code = colorSOS
	case model.StatusAmbulance:
		code = colorAmbulance
	default:
		return s.String()
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorAccent, s)
}

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorMuted, s)
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
