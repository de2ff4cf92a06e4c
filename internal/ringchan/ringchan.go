// Package ringchan provides a bounded channel whose producers never block.
package ringchan

import "sync/atomic"

// RingChannel is a buffered channel with overwrite-oldest semantics.
//
// Producers call Send and never wait on a slow consumer: when the buffer is
// full the oldest queued value is dropped. Consumers read C() like any channel.
//
//	rc := ringchan.New[Event](3)
//	for i := 0; i < 10; i++ {
//	    rc.Send(Event{Seq: i})
//	}
//	rc.Close()
//	for ev := range rc.C() {
//	    fmt.Println(ev.Seq) // 7, 8, 9
//	}
//
// Only one goroutine may call Close, and no Send may follow it.
type RingChannel[T any] struct {
	ch          chan T
	written     atomic.Int64
	overwritten atomic.Int64
}

// New creates a RingChannel with the given capacity
func New[T any](capacity int) *RingChannel[T] {
	if capacity <= 0 {
		panic("ringchan: capacity must be > 0")
	}
	return &RingChannel[T]{ch: make(chan T, capacity)}
}

// C returns the receive side
func (rc *RingChannel[T]) C() <-chan T {
	return rc.ch
}

// Send enqueues v, discarding the oldest value if the buffer is full.
// Returns true when a value was dropped.
func (rc *RingChannel[T]) Send(v T) bool {
	dropped := false
	for {
		select {
		case rc.ch <- v:
			rc.written.Add(1)
			return dropped
		default:
		}

		// Full: make room. A concurrent reader may have drained it already.
		select {
		case <-rc.ch:
			rc.overwritten.Add(1)
			dropped = true
		default:
		}
	}
}

// TrySend enqueues v only if there is room
func (rc *RingChannel[T]) TrySend(v T) bool {
	select {
	case rc.ch <- v:
		rc.written.Add(1)
		return true
	default:
		return false
	}
}

// Len returns the number of buffered values
func (rc *RingChannel[T]) Len() int { return len(rc.ch) }

// Cap returns the buffer capacity
func (rc *RingChannel[T]) Cap() int { return cap(rc.ch) }

// Close closes the receive side once buffered values are drained
func (rc *RingChannel[T]) Close() { close(rc.ch) }

// Written is the number of values accepted so far
func (rc *RingChannel[T]) Written() int64 { return rc.written.Load() }

// Overwritten is the number of values dropped to make room
func (rc *RingChannel[T]) Overwritten() int64 { return rc.overwritten.Load() }
