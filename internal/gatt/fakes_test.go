package gatt

import (
	"context"
	"sync"

	"github.com/plajta/plajtime/internal/device"
	"github.com/stretchr/testify/mock"
)

type mockDialer struct {
	mock.Mock
}

func (m *mockDialer) Dial(ctx context.Context, address string) (device.Client, error) {
	args := m.Called(ctx, address)
	c, _ := args.Get(0).(device.Client)
	return c, args.Error(1)
}

// fakeChar records writes. onWrite, when set, replaces the default immediate ack.
type fakeChar struct {
	uuid     string
	writable bool
	onWrite  func(data []byte) error

	mu     sync.Mutex
	writes [][]byte
	acks   []bool
}

func (c *fakeChar) UUID() string   { return c.uuid }
func (c *fakeChar) CanWrite() bool { return c.writable }

func (c *fakeChar) Write(data []byte, withResponse bool) error {
	c.mu.Lock()
	c.writes = append(c.writes, append([]byte(nil), data...))
	c.acks = append(c.acks, withResponse)
	c.mu.Unlock()
	if c.onWrite != nil {
		return c.onWrite(data)
	}
	return nil
}

type fakeService struct {
	uuid  string
	chars []device.Characteristic
}

func (s *fakeService) UUID() string                             { return s.uuid }
func (s *fakeService) Characteristics() []device.Characteristic { return s.chars }

// fakeClient models a connected peripheral. Cancelling the connection drops the link,
// like a real host stack reporting the disconnect it caused.
type fakeClient struct {
	address    string
	services   []device.Service
	discErr    error
	onDiscover func(ctx context.Context) ([]device.Service, error)

	disconnected chan struct{}
	dropOnce     sync.Once

	mu      sync.Mutex
	cancels int
}

func newFakeClient(address string, services ...device.Service) *fakeClient {
	return &fakeClient{address: address, services: services, disconnected: make(chan struct{})}
}

func (c *fakeClient) Address() string { return c.address }

func (c *fakeClient) DiscoverServices(ctx context.Context) ([]device.Service, error) {
	if c.onDiscover != nil {
		return c.onDiscover(ctx)
	}
	if c.discErr != nil {
		return nil, c.discErr
	}
	return c.services, nil
}

func (c *fakeClient) Disconnected() <-chan struct{} { return c.disconnected }

func (c *fakeClient) drop() {
	c.dropOnce.Do(func() { close(c.disconnected) })
}

func (c *fakeClient) CancelConnection() error {
	c.mu.Lock()
	c.cancels++
	c.mu.Unlock()
	c.drop()
	return nil
}

func (c *fakeClient) cancelCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancels
}

func currentTimeService(char device.Characteristic) device.Service {
	return &fakeService{uuid: "1805", chars: []device.Characteristic{char}}
}
