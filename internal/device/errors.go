package device

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError represents an error when a BLE resource is not found
type NotFoundError struct {
	Resource string   // "service" or "characteristic"
	UUIDs    []string // [serviceUUID] or [serviceUUID, charUUID]
}

func (e *NotFoundError) Error() string {
	if len(e.UUIDs) == 0 {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	if len(e.UUIDs) == 1 {
		return fmt.Sprintf("%s %q not found", e.Resource, e.UUIDs[0])
	}
	return fmt.Sprintf("%s %q not found in service %q", e.Resource, e.UUIDs[len(e.UUIDs)-1], e.UUIDs[0])
}

// ErrorKind classifies a failed sync attempt
type ErrorKind string

const (
	PreconditionFailed     ErrorKind = "precondition_failed"
	ScanFailed             ErrorKind = "scan_failed"
	ConnectFailed          ErrorKind = "connect_failed"
	ServiceDiscoveryFailed ErrorKind = "service_discovery_failed"
	CharacteristicNotFound ErrorKind = "characteristic_not_found"
	WriteFailed            ErrorKind = "write_failed"
	ConnectionLost         ErrorKind = "connection_lost"
)

// SyncError is the terminal error of a scan or sync attempt.
// Code carries the scan failure reason or the GATT status when the kind has one.
type SyncError struct {
	Kind ErrorKind
	Code int
	Err  error
}

// Error implements the error interface
func (e *SyncError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := string(e.Kind)
	switch e.Kind {
	case ScanFailed:
		msg = fmt.Sprintf("%s (%s)", msg, ScanFailureReason(e.Code))
	case ServiceDiscoveryFailed, WriteFailed:
		msg = fmt.Sprintf("%s (status 0x%02x)", msg, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *SyncError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is allows errors.Is to compare SyncError values by Kind
func (e *SyncError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*SyncError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Predefined sentinel errors, one per kind
var (
	ErrPreconditionFailed     = &SyncError{Kind: PreconditionFailed}
	ErrScanFailed             = &SyncError{Kind: ScanFailed}
	ErrConnectFailed          = &SyncError{Kind: ConnectFailed}
	ErrServiceDiscoveryFailed = &SyncError{Kind: ServiceDiscoveryFailed}
	ErrCharacteristicNotFound = &SyncError{Kind: CharacteristicNotFound}
	ErrWriteFailed            = &SyncError{Kind: WriteFailed}
	ErrConnectionLost         = &SyncError{Kind: ConnectionLost}
)

// Causes reported inside SyncError.Err
var (
	ErrBluetoothOff       = errors.New("bluetooth is turned off")
	ErrAdapterUnavailable = errors.New("bluetooth adapter unavailable")
	ErrPermissionDenied   = errors.New("bluetooth permission denied")
	ErrScanInProgress     = errors.New("scan already in progress")
	ErrNotConnected       = errors.New("device not connected")
	ErrUnsupported        = errors.New("unsupported")
)

// NewSyncError builds a SyncError of the given kind
func NewSyncError(kind ErrorKind, code int, err error) *SyncError {
	return &SyncError{Kind: kind, Code: code, Err: err}
}

// KindOf returns the kind of the first SyncError in err's chain, or "" if there is none
func KindOf(err error) ErrorKind {
	var serr *SyncError
	if errors.As(err, &serr) {
		return serr.Kind
	}
	return ""
}

// CodeOf returns the numeric code of the first SyncError in err's chain
func CodeOf(err error) int {
	var serr *SyncError
	if errors.As(err, &serr) {
		return serr.Code
	}
	return 0
}

// ScanFailureReason enumerates radio-level scan start failures.
// Values match the Android ScanCallback SCAN_FAILED_* codes.
type ScanFailureReason int

const (
	ReasonUnknown            ScanFailureReason = 0
	ReasonAlreadyStarted     ScanFailureReason = 1
	ReasonRegistrationFailed ScanFailureReason = 2
	ReasonInternalError      ScanFailureReason = 3
	ReasonFeatureUnsupported ScanFailureReason = 4
)

func (r ScanFailureReason) String() string {
	switch r {
	case ReasonAlreadyStarted:
		return "already-started"
	case ReasonRegistrationFailed:
		return "registration-failed"
	case ReasonInternalError:
		return "internal-error"
	case ReasonFeatureUnsupported:
		return "feature-unsupported"
	default:
		return "unknown"
	}
}

// ScanFailureError is returned by a ScanningDevice when the radio refuses to scan
type ScanFailureError struct {
	Reason ScanFailureReason
	Err    error
}

func (e *ScanFailureError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("scan failed: %s", e.Reason)
	}
	return fmt.Sprintf("scan failed: %s: %v", e.Reason, e.Err)
}

func (e *ScanFailureError) Unwrap() error { return e.Err }

// ClassifyScanFailure maps a scan error to a failure reason.
// A ScanFailureError in the chain wins; otherwise well-known messages are matched.
func ClassifyScanFailure(err error) ScanFailureReason {
	if err == nil {
		return ReasonUnknown
	}

	var sfe *ScanFailureError
	if errors.As(err, &sfe) {
		return sfe.Reason
	}
	if errors.Is(err, ErrUnsupported) {
		return ReasonFeatureUnsupported
	}

	msg := err.Error()
	switch {
	case containsIgnoreCase(msg, "already scanning"), containsIgnoreCase(msg, "scan already"):
		return ReasonAlreadyStarted
	case containsIgnoreCase(msg, "not supported"), containsIgnoreCase(msg, "not implemented"), containsIgnoreCase(msg, "unsupported"):
		return ReasonFeatureUnsupported
	case containsIgnoreCase(msg, "register"), containsIgnoreCase(msg, "registration"):
		return ReasonRegistrationFailed
	case containsIgnoreCase(msg, "internal"), containsIgnoreCase(msg, "hci"):
		return ReasonInternalError
	default:
		return ReasonUnknown
	}
}

// GATT status codes reported when the platform gives no more specific one
const (
	StatusSuccess   = 0x00
	StatusGattError = 0x85
)

// StatusError carries the ATT/GATT status code of a failed GATT operation
type StatusError struct {
	Status int
	Err    error
}

func (e *StatusError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("gatt status 0x%02x", e.Status)
	}
	return fmt.Sprintf("gatt status 0x%02x: %v", e.Status, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

// GattStatus extracts the GATT status from err, falling back to StatusGattError
func GattStatus(err error) int {
	if err == nil {
		return StatusSuccess
	}
	var serr *StatusError
	if errors.As(err, &serr) {
		return serr.Status
	}
	return StatusGattError
}

// containsIgnoreCase checks substring case-insensitively
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
