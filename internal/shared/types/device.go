package types

import (
	"fmt"
	"strings"
)

// DefaultModel labels devices whose model property could not be read.
const DefaultModel = "Android Device"

// Device represents a device known to adb
type Device struct {
	Serial   string `json:"serial"`
	Model    string `json:"model"`
	State    string `json:"state"`
	Wireless bool   `json:"wireless"`
}

// IsWirelessSerial reports whether serial names a TCP/IP connection.
func IsWirelessSerial(serial string) bool {
	return strings.Contains(serial, ":")
}

// Size is a pixel width and height
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// Ratio returns width divided by height, or 0 for an invalid size.
func (s Size) Ratio() float64 {
	if !s.Valid() {
		return 0
	}
	return float64(s.Width) / float64(s.Height)
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}
