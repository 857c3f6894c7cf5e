package utils

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
)

// Limits for values accepted from the control API
const (
	MaxSerialLength  = 128
	MaxAddressLength = 255
	DefaultTCPPort   = 5555
)

var (
	// SerialPattern matches USB serials and host:port wireless serials
	SerialPattern = regexp.MustCompile(`^[a-zA-Z0-9._:-]+$`)
	// KeycodePattern matches KEYCODE_* names and numeric key codes
	KeycodePattern = regexp.MustCompile(`^(KEYCODE_[A-Z0-9_]+|[0-9]{1,3})$`)
)

// ValidateSerial validates a device serial
func ValidateSerial(serial string) error {
	if serial == "" {
		return fmt.Errorf("serial is required")
	}
	if len(serial) > MaxSerialLength {
		return fmt.Errorf("serial must not exceed %d characters", MaxSerialLength)
	}
	if !SerialPattern.MatchString(serial) {
		return fmt.Errorf("serial contains invalid characters")
	}
	return nil
}

// ValidatePort validates a TCP port number
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

// ValidateHost validates a bare host name or IP address
func ValidateHost(host string) error {
	if host == "" {
		return fmt.Errorf("address is required")
	}
	if len(host) > MaxAddressLength {
		return fmt.Errorf("address must not exceed %d characters", MaxAddressLength)
	}
	if net.ParseIP(host) != nil {
		return nil
	}
	for _, label := range strings.Split(host, ".") {
		if label == "" || !SerialPattern.MatchString(label) || strings.Contains(label, ":") {
			return fmt.Errorf("address %q is not a valid host", host)
		}
	}
	return nil
}

// NormalizeAddress validates address and returns host:port. A port embedded
// in address wins over port; port 0 means DefaultTCPPort.
func NormalizeAddress(address string, port int) (string, error) {
	address = strings.TrimSpace(address)
	host := address
	if h, p, err := net.SplitHostPort(address); err == nil {
		n, err := strconv.Atoi(p)
		if err != nil {
			return "", fmt.Errorf("address %q has an invalid port", address)
		}
		host, port = h, n
	}
	if port == 0 {
		port = DefaultTCPPort
	}
	if err := ValidateHost(host); err != nil {
		return "", err
	}
	if err := ValidatePort(port); err != nil {
		return "", err
	}
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}

// ValidateKeycode validates an Android key event code
func ValidateKeycode(code string) error {
	if !KeycodePattern.MatchString(code) {
		return fmt.Errorf("keycode %q must be a KEYCODE_* name or a number", code)
	}
	return nil
}
