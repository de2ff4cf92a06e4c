package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/plajta/plajtime/internal/device"
)

// Command-level errors
var (
	// ErrNotFound is returned when the scan window closes without seeing the clock.
	// Timing out is a normal scan outcome; it only becomes an error at the command level.
	ErrNotFound = errors.New("clock not found")
)

// Exit codes
const (
	exitFailure      = 1
	exitNotFound     = 2
	exitPrecondition = 3
)

// FormatUserError turns driver errors into a one-line message for the terminal
func FormatUserError(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return fmt.Sprintf("%v: make sure the clock is powered on and in range", err)
	case errors.Is(err, device.ErrScanInProgress):
		return "a scan is already running"
	case errors.Is(err, device.ErrBluetoothOff):
		return "Bluetooth is turned off: enable it and try again"
	case errors.Is(err, device.ErrPermissionDenied):
		return "Bluetooth permission denied: allow this terminal to use Bluetooth"
	case errors.Is(err, device.ErrAdapterUnavailable), errors.Is(err, device.ErrUnsupported):
		return fmt.Sprintf("no usable Bluetooth adapter: %v", err)
	case errors.Is(err, device.ErrScanFailed):
		return fmt.Sprintf("scan could not be started (%s)", device.ScanFailureReason(device.CodeOf(err)))
	case errors.Is(err, device.ErrConnectFailed):
		return fmt.Sprintf("could not connect to the clock: %v", causeOf(err))
	case errors.Is(err, device.ErrServiceDiscoveryFailed):
		return fmt.Sprintf("service discovery failed (GATT status 0x%02X)", device.CodeOf(err))
	case errors.Is(err, device.ErrCharacteristicNotFound):
		return "the device does not expose the Current Time characteristic; is it really a PlajTime clock?"
	case errors.Is(err, device.ErrWriteFailed):
		return fmt.Sprintf("the clock rejected the time (GATT status 0x%02X)", device.CodeOf(err))
	case errors.Is(err, device.ErrConnectionLost):
		return "connection lost before the time was written; move closer and try again"
	case errors.Is(err, context.DeadlineExceeded):
		return "operation timed out"
	default:
		return err.Error()
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return exitNotFound
	case errors.Is(err, device.ErrPreconditionFailed):
		return exitPrecondition
	default:
		return exitFailure
	}
}

// causeOf returns the error wrapped by the first SyncError in err's chain
func causeOf(err error) error {
	var serr *device.SyncError
	if errors.As(err, &serr) && serr.Err != nil {
		return serr.Err
	}
	return err
}
