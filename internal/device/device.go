package device

import (
	"context"
)

// Current Time Service UUIDs, in the full Bluetooth SIG base form used on the wire.
const (
	CurrentTimeServiceUUID = "00001805-0000-1000-8000-00805f9b34fb"
	CurrentTimeCharUUID    = "00002a2b-0000-1000-8000-00805f9b34fb"
)

// Advertisement is the subset of a received BLE advertisement the driver looks at.
type Advertisement interface {
	LocalName() string
	Addr() string
	RSSI() int
	Connectable() bool
}

// ScanningDevice represents a BLE radio capable of scanning for advertisements.
// Scan blocks until ctx is done or the radio fails; cancelling ctx stops the hardware scan.
type ScanningDevice interface {
	Scan(ctx context.Context, allowDup bool, handler func(Advertisement)) error
}

// Dialer opens a GATT link to a peripheral.
type Dialer interface {
	Dial(ctx context.Context, address string) (Client, error)
}

// Radio is a local BLE adapter that can both scan and dial.
type Radio interface {
	ScanningDevice
	Dialer
}

// Client is a live GATT link to a single peripheral.
type Client interface {
	// Address returns the peer address the link was dialed with.
	Address() string
	// DiscoverServices walks the peer's GATT tree.
	DiscoverServices(ctx context.Context) ([]Service, error)
	// Disconnected is closed when the link drops. A nil channel means the platform
	// does not report link loss.
	Disconnected() <-chan struct{}
	// CancelConnection tears the link down and releases its resources.
	CancelConnection() error
}

// Service represents a discovered GATT service
type Service interface {
	UUID() string
	Characteristics() []Characteristic
}

// Characteristic represents a discovered GATT characteristic
type Characteristic interface {
	UUID() string
	CanWrite() bool
	// Write sends data. withResponse selects the acknowledged ("default") write type.
	Write(data []byte, withResponse bool) error
}

// FindCharacteristic resolves a characteristic from a discovered service tree.
// Returns a NotFoundError naming the missing level.
func FindCharacteristic(services []Service, serviceUUID, charUUID string) (Characteristic, error) {
	wantSvc := NormalizeUUID(serviceUUID)
	wantChar := NormalizeUUID(charUUID)

	for _, svc := range services {
		if NormalizeUUID(svc.UUID()) != wantSvc {
			continue
		}
		for _, char := range svc.Characteristics() {
			if NormalizeUUID(char.UUID()) == wantChar {
				return char, nil
			}
		}
		return nil, &NotFoundError{Resource: "characteristic", UUIDs: []string{serviceUUID, charUUID}}
	}

	return nil, &NotFoundError{Resource: "service", UUIDs: []string{serviceUUID}}
}
