package goble

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-ble/ble"
	"github.com/plajta/plajtime/internal/device"
	"github.com/sirupsen/logrus"
)

// DeviceFactory creates ble.Device instances (can be overridden in tests)
//
//nolint:revive // DeviceFactory name is intentional for test mocking
var DeviceFactory = newPlatformDevice

// Radio adapts a go-ble host device to device.Radio
type Radio struct {
	dev    ble.Device
	logger *logrus.Logger
}

// NewRadio opens the local BLE adapter. Errors are normalized so that a powered-off
// or missing adapter can be told apart from other failures.
func NewRadio(logger *logrus.Logger) (*Radio, error) {
	if logger == nil {
		logger = logrus.New()
	}

	dev, err := DeviceFactory()
	if err != nil {
		logger.WithError(err).Debug("Failed to open BLE device")
		return nil, NormalizeError(err)
	}

	return &Radio{dev: dev, logger: logger}, nil
}

// Scan wraps the raw ble.Device.Scan to convert ble.Advertisement to the device.Advertisement
func (r *Radio) Scan(ctx context.Context, allowDup bool, handler func(device.Advertisement)) error {
	bleHandler := func(adv ble.Advertisement) {
		handler(NewBLEAdvertisement(adv))
	}
	if err := r.dev.Scan(ctx, allowDup, bleHandler); err != nil {
		return NormalizeError(err)
	}
	return nil
}

// Dial connects to the peripheral with the given address
func (r *Radio) Dial(ctx context.Context, address string) (device.Client, error) {
	if strings.TrimSpace(address) == "" {
		return nil, fmt.Errorf("device address is empty")
	}

	r.logger.WithField("address", address).Debug("Dialing BLE device...")
	client, err := r.dev.Dial(ctx, ble.NewAddr(address))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to device with address %q: %w", address, NormalizeError(err))
	}

	return newClient(client, address, r.logger), nil
}

// Close releases the host device
func (r *Radio) Close() error {
	return NormalizeError(r.dev.Stop())
}

var _ device.Radio = (*Radio)(nil)
