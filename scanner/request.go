package scanner

import (
	"fmt"
	"strings"
	"time"

	"github.com/plajta/plajtime/internal/device"
)

// Defaults for the PlajTime clock
const (
	DefaultTargetName = "PlajTime"
	DefaultTimeout    = 10 * time.Second
)

// ScanMode is the requested radio duty cycle. go-ble has no scan mode knob, so it is
// recorded and logged but every mode scans the same way.
type ScanMode int

const (
	LowLatency ScanMode = iota
	Balanced
	LowPower
)

func (m ScanMode) String() string {
	switch m {
	case LowLatency:
		return "low-latency"
	case Balanced:
		return "balanced"
	case LowPower:
		return "low-power"
	default:
		return fmt.Sprintf("ScanMode(%d)", int(m))
	}
}

// ParseScanMode parses "low-latency", "balanced" or "low-power"
func ParseScanMode(s string) (ScanMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low-latency", "lowlatency", "":
		return LowLatency, nil
	case "balanced":
		return Balanced, nil
	case "low-power", "lowpower":
		return LowPower, nil
	default:
		return LowLatency, fmt.Errorf("unknown scan mode %q", s)
	}
}

// ScanRequest describes one scan. It is passed by value and not changed once issued.
type ScanRequest struct {
	TargetName string
	Timeout    time.Duration
	Mode       ScanMode
}

// DefaultScanRequest looks for "PlajTime" for 10 seconds in low-latency mode
func DefaultScanRequest() ScanRequest {
	return ScanRequest{
		TargetName: DefaultTargetName,
		Timeout:    DefaultTimeout,
		Mode:       LowLatency,
	}
}

// Validate checks that the request can be issued
func (r ScanRequest) Validate() error {
	if r.TargetName == "" {
		return fmt.Errorf("target name is empty")
	}
	if r.Timeout <= 0 {
		return fmt.Errorf("scan timeout must be positive, got %s", r.Timeout)
	}
	return nil
}

// OutcomeKind tags an Outcome
type OutcomeKind int

const (
	Found OutcomeKind = iota
	TimedOut
	Failed
	Cancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case Found:
		return "found"
	case TimedOut:
		return "timed-out"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the single terminal result of a scan
type Outcome struct {
	Kind OutcomeKind

	// Found
	Address string
	Name    string
	RSSI    int

	// Failed
	Reason device.ScanFailureReason
	Cause  error
}

// Err converts a Failed outcome into a ScanFailed error and a Cancelled one into the
// context error. Found and TimedOut return nil: not finding the clock is not a failure.
func (o Outcome) Err() error {
	switch o.Kind {
	case Failed:
		return device.NewSyncError(device.ScanFailed, int(o.Reason), o.Cause)
	case Cancelled:
		if o.Cause != nil {
			return o.Cause
		}
		return fmt.Errorf("scan cancelled")
	default:
		return nil
	}
}

func (o Outcome) String() string {
	switch o.Kind {
	case Found:
		return fmt.Sprintf("found %s (%s, rssi %d)", o.Address, o.Name, o.RSSI)
	case Failed:
		return fmt.Sprintf("failed: %s", o.Reason)
	default:
		return o.Kind.String()
	}
}
