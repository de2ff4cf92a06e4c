// Package scanner finds the PlajTime clock by its advertised name.
package scanner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/cornelk/hashmap"
	"github.com/plajta/plajtime/internal/device"
	"github.com/plajta/plajtime/internal/groutine"
	"github.com/plajta/plajtime/internal/ringchan"
	"github.com/sirupsen/logrus"
)

// subscriberBuffer bounds each scanning-flag subscriber; older flag values are dropped first
const subscriberBuffer = 8

// DeviceFactory opens the radio used for one scan
type DeviceFactory func() (device.ScanningDevice, error)

// Controller runs at most one name-filtered scan at a time and owns the scanning flag
type Controller struct {
	factory DeviceFactory
	logger  *logrus.Logger

	mu       sync.Mutex // guards scanning and subscriber delivery
	scanning bool

	subs    *hashmap.Map[uint64, *ringchan.RingChannel[bool]]
	nextSub atomic.Uint64
}

// NewController creates a scan controller that obtains its radio from factory
func NewController(factory DeviceFactory, logger *logrus.Logger) *Controller {
	if logger == nil {
		logger = logrus.New()
	}
	return &Controller{
		factory: factory,
		logger:  logger,
		subs:    hashmap.New[uint64, *ringchan.RingChannel[bool]](),
	}
}

// IsScanning reports whether a scan is active
func (c *Controller) IsScanning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scanning
}

// Subscribe returns a channel that receives the current scanning flag and then every
// change of it, plus a function that ends the subscription and closes the channel.
func (c *Controller) Subscribe() (<-chan bool, func()) {
	rc := ringchan.New[bool](subscriberBuffer)
	id := c.nextSub.Add(1)

	c.mu.Lock()
	c.subs.Set(id, rc)
	rc.Send(c.scanning)
	c.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.subs.Del(id)
			rc.Close()
		})
	}
	return rc.C(), unsubscribe
}

// claim sets the scanning flag, failing if it is already set
func (c *Controller) claim() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scanning {
		return false
	}
	c.setLocked(true)
	return true
}

func (c *Controller) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(false)
}

func (c *Controller) setLocked(v bool) {
	c.scanning = v
	c.subs.Range(func(_ uint64, rc *ringchan.RingChannel[bool]) bool {
		rc.Send(v)
		return true
	})
}

// Start begins a scan and returns a channel that delivers exactly one Outcome.
//
// It fails with a PreconditionFailed error, without touching the radio, when a scan
// is already running or the radio cannot be opened. The scanning flag is cleared
// before the outcome is delivered.
func (c *Controller) Start(ctx context.Context, req ScanRequest) (<-chan Outcome, error) {
	if err := req.Validate(); err != nil {
		return nil, device.NewSyncError(device.PreconditionFailed, 0, err)
	}

	if !c.claim() {
		c.logger.Debug("Scan requested while another scan is running")
		return nil, device.NewSyncError(device.PreconditionFailed, 0, device.ErrScanInProgress)
	}

	dev, err := c.factory()
	if err != nil {
		c.release()
		c.logger.WithError(err).Warn("Bluetooth is not available")
		return nil, device.NewSyncError(device.PreconditionFailed, 0, err)
	}

	c.logger.WithFields(logrus.Fields{
		"target":  req.TargetName,
		"timeout": req.Timeout,
		"mode":    req.Mode,
	}).Info("Starting BLE scan...")

	out := make(chan Outcome, 1)
	groutine.Go(ctx, "scan", func(ctx context.Context) {
		outcome := c.run(ctx, dev, req)
		c.release()
		c.logOutcome(outcome)
		out <- outcome
		close(out)
	})
	return out, nil
}

// Scan is Start followed by waiting for the outcome
func (c *Controller) Scan(ctx context.Context, req ScanRequest) (Outcome, error) {
	ch, err := c.Start(ctx, req)
	if err != nil {
		return Outcome{}, err
	}
	return <-ch, nil
}

// run scans until the first advertisement named req.TargetName, the timeout, a radio
// failure or ctx cancellation, and always returns with the radio scan stopped.
func (c *Controller) run(ctx context.Context, dev device.ScanningDevice, req ScanRequest) Outcome {
	scanCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	matches := make(chan Outcome, 1)
	var once sync.Once
	handler := func(adv device.Advertisement) {
		if adv.LocalName() != req.TargetName {
			return
		}
		once.Do(func() {
			matches <- Outcome{Kind: Found, Address: adv.Addr(), Name: adv.LocalName(), RSSI: adv.RSSI()}
			cancel()
		})
	}

	err := dev.Scan(scanCtx, false, handler)

	select {
	case found := <-matches:
		return found
	default:
	}

	switch {
	case ctx.Err() != nil:
		return Outcome{Kind: Cancelled, Cause: ctx.Err()}
	case err == nil, errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return Outcome{Kind: TimedOut}
	default:
		return Outcome{Kind: Failed, Reason: device.ClassifyScanFailure(err), Cause: err}
	}
}

func (c *Controller) logOutcome(o Outcome) {
	switch o.Kind {
	case Found:
		c.logger.WithFields(logrus.Fields{
			"address": o.Address,
			"rssi":    o.RSSI,
		}).Info("Found target device")
	case TimedOut:
		c.logger.Info("Scan timed out, target device not found")
	case Cancelled:
		c.logger.Info("Scan cancelled")
	case Failed:
		entry := c.logger.WithError(o.Cause).WithField("reason_code", int(o.Reason))
		switch o.Reason {
		case device.ReasonAlreadyStarted:
			entry.Error("Scan failed: a scan with the same settings is already started")
		case device.ReasonRegistrationFailed:
			entry.Error("Scan failed: the scanner could not be registered")
		case device.ReasonInternalError:
			entry.Error("Scan failed: internal Bluetooth error")
		case device.ReasonFeatureUnsupported:
			entry.Error("Scan failed: scanning is not supported on this adapter")
		default:
			entry.Error("Scan failed")
		}
	}
}
