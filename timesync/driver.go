// Package timesync ties the scan controller and the GATT session into the single
// "find the clock and set its time" flow that front ends consume as an event stream.
package timesync

import (
	"context"
	"io"
	"sync"

	"github.com/plajta/plajtime/internal/device"
	"github.com/plajta/plajtime/internal/gatt"
	"github.com/plajta/plajtime/internal/groutine"
	"github.com/plajta/plajtime/internal/ringchan"
	"github.com/plajta/plajtime/scanner"
	"github.com/sirupsen/logrus"
)

// eventBuffer bounds undelivered events; a slow consumer loses the oldest, never the last
const eventBuffer = 8

// RadioFactory opens the local BLE adapter
type RadioFactory func() (device.Radio, error)

// Driver runs scan-then-sync attempts, one at a time
type Driver struct {
	factory     RadioFactory
	logger      *logrus.Logger
	request     scanner.ScanRequest
	sessionOpts []gatt.Option
	scanner     *scanner.Controller

	mu    sync.Mutex
	radio device.Radio
}

// Option configures a Driver
type Option func(*Driver)

// WithScanRequest overrides the default PlajTime scan request
func WithScanRequest(req scanner.ScanRequest) Option {
	return func(d *Driver) { d.request = req }
}

// WithSessionOptions are applied to every GATT session the driver opens
func WithSessionOptions(opts ...gatt.Option) Option {
	return func(d *Driver) { d.sessionOpts = append(d.sessionOpts, opts...) }
}

// NewDriver creates a driver. The radio is opened lazily on the first RequestScan.
func NewDriver(factory RadioFactory, logger *logrus.Logger, opts ...Option) *Driver {
	if logger == nil {
		logger = logrus.New()
	}
	d := &Driver{
		factory: factory,
		logger:  logger,
		request: scanner.DefaultScanRequest(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.scanner = scanner.NewController(func() (device.ScanningDevice, error) {
		return d.openRadio()
	}, logger)
	return d
}

// openRadio returns the cached radio, opening it on first use. Failures are not cached.
func (d *Driver) openRadio() (device.Radio, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.radio != nil {
		return d.radio, nil
	}
	r, err := d.factory()
	if err != nil {
		return nil, err
	}
	d.radio = r
	return r, nil
}

// IsScanning reports whether a scan is active
func (d *Driver) IsScanning() bool {
	return d.scanner.IsScanning()
}

// SubscribeScanning streams the scanning flag; see scanner.Controller.Subscribe
func (d *Driver) SubscribeScanning() (<-chan bool, func()) {
	return d.scanner.Subscribe()
}

// RequestScan starts one attempt and returns its events: Scanning, then either
// TimedOut, Failed or Cancelled, or Found followed by SyncSucceeded or SyncFailed.
// The channel is closed after the terminal event.
//
// A PreconditionFailed error is returned, and no event emitted, when a scan is
// already running or Bluetooth is unavailable.
func (d *Driver) RequestScan(ctx context.Context) (<-chan Event, error) {
	outcomes, err := d.scanner.Start(ctx, d.request)
	if err != nil {
		return nil, err
	}

	events := ringchan.New[Event](eventBuffer)
	events.Send(Event{Kind: Scanning})

	groutine.Go(ctx, "timesync", func(ctx context.Context) {
		defer events.Close()
		d.follow(ctx, <-outcomes, events)
	})
	return events.C(), nil
}

func (d *Driver) follow(ctx context.Context, o scanner.Outcome, events *ringchan.RingChannel[Event]) {
	switch o.Kind {
	case scanner.TimedOut:
		events.Send(Event{Kind: TimedOut})
		return
	case scanner.Failed:
		events.Send(Event{Kind: Failed, Code: int(o.Reason), Err: o.Err()})
		return
	case scanner.Cancelled:
		events.Send(Event{Kind: Cancelled, Err: o.Err()})
		return
	}

	events.Send(Event{Kind: Found, Address: o.Address, RSSI: o.RSSI})

	radio, err := d.openRadio()
	if err != nil {
		events.Send(Event{Kind: SyncFailed, Err: device.NewSyncError(device.PreconditionFailed, 0, err)})
		return
	}

	session := gatt.NewSession(radio, d.logger, d.sessionOpts...)
	if err := session.ConnectAndSync(ctx, o.Address); err != nil {
		if ctx.Err() != nil {
			events.Send(Event{Kind: Cancelled, Err: err})
			return
		}
		events.Send(Event{Kind: SyncFailed, Code: device.CodeOf(err), Err: err})
		return
	}

	payload, _ := session.Payload()
	events.Send(Event{Kind: SyncSucceeded, Address: o.Address, Payload: payload})
}

// Sync runs RequestScan and waits for the terminal event
func (d *Driver) Sync(ctx context.Context) (Event, error) {
	events, err := d.RequestScan(ctx)
	if err != nil {
		return Event{}, err
	}
	var last Event
	for ev := range events {
		last = ev
	}
	return last, nil
}

// Close releases the radio if it was opened
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.radio == nil {
		return nil
	}
	r := d.radio
	d.radio = nil
	if c, ok := r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
