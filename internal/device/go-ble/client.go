package goble

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-ble/ble"
	"github.com/plajta/plajtime/internal/device"
	"github.com/sirupsen/logrus"
)

// bleClient wraps a go-ble client to implement device.Client
type bleClient struct {
	client  ble.Client
	address string
	logger  *logrus.Logger
}

func newClient(client ble.Client, address string, logger *logrus.Logger) *bleClient {
	return &bleClient{client: client, address: address, logger: logger}
}

func (c *bleClient) Address() string { return c.address }

// DiscoverServices runs a full profile discovery. go-ble's discovery has no context,
// so it runs in its own goroutine and ctx only bounds the wait.
func (c *bleClient) DiscoverServices(ctx context.Context) ([]device.Service, error) {
	type discoverResult struct {
		profile *ble.Profile
		err     error
	}
	ch := make(chan discoverResult, 1)
	go func() {
		p, err := c.client.DiscoverProfile(true)
		ch <- discoverResult{p, err}
	}()

	var res discoverResult
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}

	if res.err != nil {
		return nil, fmt.Errorf("failed to discover profile: %w", withStatus(res.err))
	}
	if res.profile == nil {
		return nil, nil
	}

	services := make([]device.Service, 0, len(res.profile.Services))
	for _, svc := range res.profile.Services {
		s := &bleService{uuid: svc.UUID.String()}
		for _, char := range svc.Characteristics {
			s.chars = append(s.chars, &bleCharacteristic{char: char, client: c.client})
		}
		c.logger.WithFields(logrus.Fields{
			"service_uuid":    s.uuid,
			"characteristics": len(s.chars),
		}).Debug("Found service")
		services = append(services, s)
	}
	return services, nil
}

// Disconnected returns the go-ble disconnect channel when the platform client exposes one
func (c *bleClient) Disconnected() <-chan struct{} {
	if dc, ok := c.client.(interface{ Disconnected() <-chan struct{} }); ok {
		return dc.Disconnected()
	}
	c.logger.Debug("Client does not support Disconnected() channel")
	return nil
}

func (c *bleClient) CancelConnection() error {
	return NormalizeError(c.client.CancelConnection())
}

// bleService represents a discovered GATT service
type bleService struct {
	uuid  string
	chars []device.Characteristic
}

func (s *bleService) UUID() string                             { return s.uuid }
func (s *bleService) Characteristics() []device.Characteristic { return s.chars }

// bleCharacteristic binds a discovered characteristic to the client that found it
type bleCharacteristic struct {
	char   *ble.Characteristic
	client ble.Client
}

func (c *bleCharacteristic) UUID() string { return c.char.UUID.String() }

func (c *bleCharacteristic) CanWrite() bool {
	return c.char.Property&(ble.CharWrite|ble.CharWriteNR) != 0
}

func (c *bleCharacteristic) Write(data []byte, withResponse bool) error {
	if err := c.client.WriteCharacteristic(c.char, data, !withResponse); err != nil {
		return fmt.Errorf("failed to write characteristic %s: %w", c.UUID(), withStatus(err))
	}
	return nil
}

// withStatus attaches the ATT error code, when go-ble reports one, as a device.StatusError
func withStatus(err error) error {
	var attErr ble.ATTError
	if errors.As(err, &attErr) {
		return &device.StatusError{Status: int(attErr), Err: err}
	}
	return NormalizeError(err)
}
