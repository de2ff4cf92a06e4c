package scanner

import (
	"context"
	"sync/atomic"

	"github.com/plajta/plajtime/internal/device"
)

type fakeAdv struct {
	name string
	addr string
	rssi int
}

func (a fakeAdv) LocalName() string { return a.name }
func (a fakeAdv) Addr() string      { return a.addr }
func (a fakeAdv) RSSI() int         { return a.rssi }
func (a fakeAdv) Connectable() bool { return true }

// fakeRadio emits its advertisements, then blocks until the scan context ends
type fakeRadio struct {
	advs    []device.Advertisement
	err     error
	started chan struct{}
	scans   atomic.Int32
	stopped atomic.Bool
}

func newFakeRadio(advs ...device.Advertisement) *fakeRadio {
	return &fakeRadio{advs: advs, started: make(chan struct{}, 1)}
}

func (r *fakeRadio) Scan(ctx context.Context, _ bool, handler func(device.Advertisement)) error {
	r.scans.Add(1)
	if r.err != nil {
		return r.err
	}
	select {
	case r.started <- struct{}{}:
	default:
	}
	for _, adv := range r.advs {
		handler(adv)
	}
	<-ctx.Done()
	r.stopped.Store(true)
	return ctx.Err()
}

func (r *fakeRadio) factory() DeviceFactory {
	return func() (device.ScanningDevice, error) { return r, nil }
}
