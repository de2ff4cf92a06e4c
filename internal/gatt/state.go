package gatt

import (
	"fmt"

	"github.com/plajta/plajtime/internal/device"
)

// State is the lifecycle position of a Session. States only move forward.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	DiscoveringServices
	Ready
	Writing
	Closed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case DiscoveringServices:
		return "discovering-services"
	case Ready:
		return "ready"
	case Writing:
		return "writing"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// eventKind tags results reported by the hardware goroutines
type eventKind int

const (
	evConnected eventKind = iota
	evConnectFailed
	evServicesDiscovered
	evWriteCompleted
	evDisconnected
)

func (k eventKind) String() string {
	switch k {
	case evConnected:
		return "connected"
	case evConnectFailed:
		return "connect-failed"
	case evServicesDiscovered:
		return "services-discovered"
	case evWriteCompleted:
		return "write-completed"
	case evDisconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("eventKind(%d)", int(k))
	}
}

type event struct {
	kind     eventKind
	client   device.Client
	services []device.Service
	err      error
}
