// Package device defines the hardware-facing abstractions of the time-sync driver:
// a radio that scans and dials, a GATT client, and the error taxonomy every layer
// above reports through.
//
// The go-ble adapter in device/go-ble implements these interfaces for real adapters.
package device
