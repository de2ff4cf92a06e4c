// Package gatt drives one connect, discover, write, close cycle against the clock's
// Current Time characteristic.
//
// Every hardware call runs in its own goroutine and reports back as an event on a
// single channel. The session loop is the only reader, so state transitions are
// applied one at a time in the order results arrive.
package gatt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/plajta/plajtime/internal/device"
	"github.com/plajta/plajtime/internal/groutine"
	"github.com/plajta/plajtime/internal/timepayload"
	"github.com/sirupsen/logrus"
)

// DefaultConnectTimeout bounds the dial step
const DefaultConnectTimeout = 30 * time.Second

// attWriteNotPermitted is the ATT status for writing a characteristic without the write property
const attWriteNotPermitted = 0x03

// ErrSessionUsed is returned when ConnectAndSync is called twice on one Session
var ErrSessionUsed = errors.New("gatt session already used")

// Session owns a single GATT connection from dial to close. It cannot be reused.
type Session struct {
	dialer         device.Dialer
	logger         *logrus.Logger
	now            func() time.Time
	encodeOpts     []timepayload.Option
	connectTimeout time.Duration
	onTransition   func(from, to State)

	mu          sync.Mutex
	state       State
	transitions []State
	used        bool
	payload     *timepayload.Payload
}

// Option configures a Session
type Option func(*Session)

// WithClock replaces time.Now as the source of the written timestamp
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithEncodeOptions passes options through to timepayload.Encode
func WithEncodeOptions(opts ...timepayload.Option) Option {
	return func(s *Session) { s.encodeOpts = append(s.encodeOpts, opts...) }
}

// WithConnectTimeout bounds the dial step (default 30s)
func WithConnectTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.connectTimeout = d
		}
	}
}

// WithTransitionHook is called, from the session loop, on every state change
func WithTransitionHook(fn func(from, to State)) Option {
	return func(s *Session) { s.onTransition = fn }
}

// NewSession creates a session in the Disconnected state
func NewSession(dialer device.Dialer, logger *logrus.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = logrus.New()
	}
	s := &Session{
		dialer:         dialer,
		logger:         logger,
		now:            time.Now,
		connectTimeout: DefaultConnectTimeout,
		state:          Disconnected,
		transitions:    []State{Disconnected},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transitions returns every state the session has been in, oldest first
func (s *Session) Transitions() []State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]State, len(s.transitions))
	copy(out, s.transitions)
	return out
}

// Payload returns the bytes handed to the write, if the session got that far
func (s *Session) Payload() (timepayload.Payload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payload == nil {
		return timepayload.Payload{}, false
	}
	return *s.payload, true
}

func (s *Session) transition(to State) {
	s.mu.Lock()
	from := s.state
	if to <= from {
		s.mu.Unlock()
		return
	}
	s.state = to
	s.transitions = append(s.transitions, to)
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"from": from,
		"to":   to,
	}).Debug("GATT session state changed")

	if s.onTransition != nil {
		s.onTransition(from, to)
	}
}

// run holds the per-call state of ConnectAndSync
type run struct {
	*Session
	address string
	ctx     context.Context
	events  chan event
	done    chan struct{}
	client  device.Client
}

// post hands an event to the loop. It returns false once the loop has finished.
func (r *run) post(ev event) bool {
	select {
	case r.events <- ev:
		return true
	case <-r.done:
		return false
	}
}

// release drops the connection, if any, exactly once
func (r *run) release() {
	if r.client == nil {
		return
	}
	if err := r.client.CancelConnection(); err != nil {
		r.logger.WithError(err).Debug("Failed to cancel connection")
	}
	r.client = nil
}

// fail releases the connection, closes the session and builds the returned error
func (r *run) fail(kind device.ErrorKind, code int, err error) error {
	r.release()
	r.transition(Closed)
	serr := device.NewSyncError(kind, code, err)
	r.logger.WithFields(logrus.Fields{
		"address": r.address,
		"kind":    kind,
		"code":    code,
	}).WithError(err).Error("Time sync failed")
	return serr
}

// interrupt closes the session after the caller's context ended
func (r *run) interrupt() error {
	r.release()
	state := r.State()
	r.transition(Closed)
	return fmt.Errorf("time sync interrupted while %s: %w", state, r.ctx.Err())
}

// ConnectAndSync dials address, resolves the Current Time characteristic and writes the
// current time to it once. It returns nil only when the write was acknowledged.
func (s *Session) ConnectAndSync(ctx context.Context, address string) error {
	s.mu.Lock()
	if s.used {
		s.mu.Unlock()
		return ErrSessionUsed
	}
	s.used = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r := &run{
		Session: s,
		address: address,
		ctx:     ctx,
		events:  make(chan event),
		done:    make(chan struct{}),
	}
	defer close(r.done)

	s.logger.WithField("address", address).Info("Connecting to GATT server...")
	s.transition(Connecting)
	r.dial()

	for {
		select {
		case <-ctx.Done():
			return r.interrupt()

		case ev := <-r.events:
			finished, err := r.handle(ev)
			if finished {
				return err
			}
		}
	}
}

// handle applies one event. finished reports that the session reached Closed.
func (r *run) handle(ev event) (finished bool, err error) {
	state := r.State()

	switch ev.kind {
	case evConnectFailed:
		if r.ctx.Err() != nil {
			return true, r.interrupt()
		}
		return true, r.fail(device.ConnectFailed, 0, ev.err)

	case evConnected:
		r.client = ev.client
		r.transition(Connected)
		r.logger.WithField("address", r.address).Info("Connected to GATT server, discovering services...")
		r.watchLink()
		r.transition(DiscoveringServices)
		r.discover()
		return false, nil

	case evDisconnected:
		r.logger.WithFields(logrus.Fields{
			"address": r.address,
			"state":   state,
		}).Warn("Disconnected from GATT server before the write completed")
		return true, r.fail(device.ConnectionLost, 0, fmt.Errorf("link dropped while %s", state))

	case evServicesDiscovered:
		if ev.err != nil {
			return true, r.fail(device.ServiceDiscoveryFailed, device.GattStatus(ev.err), ev.err)
		}
		r.transition(Ready)
		r.logger.WithField("services", len(ev.services)).Info("Services discovered")

		char, err := device.FindCharacteristic(ev.services, device.CurrentTimeServiceUUID, device.CurrentTimeCharUUID)
		if err != nil {
			return true, r.fail(device.CharacteristicNotFound, 0, err)
		}
		if !char.CanWrite() {
			return true, r.fail(device.WriteFailed, attWriteNotPermitted,
				fmt.Errorf("characteristic %s is not writable", char.UUID()))
		}
		r.write(char)
		return false, nil

	case evWriteCompleted:
		if ev.err != nil {
			return true, r.fail(device.WriteFailed, device.GattStatus(ev.err), ev.err)
		}
		r.logger.WithField("address", r.address).Info("Current time written")
		// Any disconnect reported from here on, including the one caused by release, is expected.
		r.release()
		r.transition(Closed)
		return true, nil
	}

	return false, nil
}

func (r *run) dial() {
	groutine.Go(r.ctx, "gatt-dial", func(ctx context.Context) {
		dialCtx, cancel := context.WithTimeout(ctx, r.connectTimeout)
		defer cancel()

		client, err := r.dialer.Dial(dialCtx, r.address)
		if err != nil {
			r.post(event{kind: evConnectFailed, err: err})
			return
		}
		if !r.post(event{kind: evConnected, client: client}) {
			// The loop is gone; nobody else will release this late connection.
			_ = client.CancelConnection()
		}
	})
}

func (r *run) watchLink() {
	disconnected := r.client.Disconnected()
	if disconnected == nil {
		return
	}
	groutine.Go(r.ctx, "gatt-link", func(ctx context.Context) {
		select {
		case <-disconnected:
			r.post(event{kind: evDisconnected})
		case <-ctx.Done():
		}
	})
}

func (r *run) discover() {
	client := r.client
	groutine.Go(r.ctx, "gatt-discover", func(ctx context.Context) {
		services, err := client.DiscoverServices(ctx)
		r.post(event{kind: evServicesDiscovered, services: services, err: err})
	})
}

func (r *run) write(char device.Characteristic) {
	payload := timepayload.Encode(r.now(), r.encodeOpts...)
	r.mu.Lock()
	r.payload = &payload
	r.mu.Unlock()

	r.transition(Writing)
	r.logger.WithFields(logrus.Fields{
		"characteristic": char.UUID(),
		"payload":        payload.Hex(),
	}).Info("Writing current time")

	groutine.Go(r.ctx, "gatt-write", func(context.Context) {
		err := char.Write(payload.Bytes(), true)
		r.post(event{kind: evWriteCompleted, err: err})
	})
}
