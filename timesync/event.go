package timesync

import (
	"fmt"

	"github.com/plajta/plajtime/internal/device"
	"github.com/plajta/plajtime/internal/timepayload"
)

// EventKind tags an Event
type EventKind int

const (
	Scanning EventKind = iota
	Found
	TimedOut
	Failed
	SyncSucceeded
	SyncFailed
	Cancelled
)

func (k EventKind) String() string {
	switch k {
	case Scanning:
		return "scanning"
	case Found:
		return "found"
	case TimedOut:
		return "timed-out"
	case Failed:
		return "failed"
	case SyncSucceeded:
		return "sync-succeeded"
	case SyncFailed:
		return "sync-failed"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one step of a RequestScan attempt
type Event struct {
	Kind EventKind

	// Found
	Address string
	RSSI    int

	// Failed carries the scan failure reason; SyncFailed the GATT status, when known
	Code int
	// SyncFailed, Failed, Cancelled
	Err error

	// SyncSucceeded
	Payload timepayload.Payload
}

// Terminal reports whether no further events follow this one
func (e Event) Terminal() bool {
	switch e.Kind {
	case Scanning, Found:
		return false
	default:
		return true
	}
}

// Reason is the error kind of a SyncFailed or Failed event
func (e Event) Reason() device.ErrorKind {
	return device.KindOf(e.Err)
}

func (e Event) String() string {
	switch e.Kind {
	case Found:
		return fmt.Sprintf("found %s (rssi %d)", e.Address, e.RSSI)
	case Failed:
		return fmt.Sprintf("scan failed: %s", device.ScanFailureReason(e.Code))
	case SyncSucceeded:
		return fmt.Sprintf("sync succeeded: %s", e.Payload.Hex())
	case SyncFailed:
		return fmt.Sprintf("sync failed: %v", e.Err)
	default:
		return e.Kind.String()
	}
}
