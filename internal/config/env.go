// Package config provides environment configuration helpers for go-autoframe
// commands. Flags take precedence; these supply defaults for deployments that
// configure through the environment.
package config

import (
	"os"
	"strconv"
)

// Default device configuration.
const (
	DefaultCaptureDevice = "0"
	DefaultOutputDevice  = "/dev/video10"
	DefaultDashboardPort = "8089"
)

// CaptureDevice returns the capture device from AUTOFRAME_DEVICE.
// Accepts a numeric camera index or a device path.
func CaptureDevice() string {
	if dev := os.Getenv("AUTOFRAME_DEVICE"); dev != "" {
		return dev
	}
	return DefaultCaptureDevice
}

// OutputDevice returns the virtual camera device from AUTOFRAME_OUTPUT.
func OutputDevice() string {
	if dev := os.Getenv("AUTOFRAME_OUTPUT"); dev != "" {
		return dev
	}
	return DefaultOutputDevice
}

// DashboardPort returns the dashboard port from AUTOFRAME_PORT.
func DashboardPort() string {
	if port := os.Getenv("AUTOFRAME_PORT"); port != "" {
		return port
	}
	return DefaultDashboardPort
}

// Float returns a float64 from the named env var, or the default when the
// variable is unset or unparsable.
func Float(name string, def float64) float64 {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

// Int returns an int from the named env var, or the default when the
// variable is unset or unparsable.
func Int(name string, def int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
