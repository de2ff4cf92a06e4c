package main

import (
	"bytes"
	"context"
	"sync"

	"github.com/plajta/plajtime/internal/device"
	"github.com/plajta/plajtime/timesync"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/suite"
)

const testClockAddress = "AA:BB:CC:DD:EE:FF"

// CommandTestSuite runs the real command tree against an in-memory clock
type CommandTestSuite struct {
	suite.Suite

	clock       *fakeClock
	origFactory func(*logrus.Logger) timesync.RadioFactory
}

func (s *CommandTestSuite) SetupTest() {
	s.T().Setenv("HOME", s.T().TempDir())
	s.clock = newFakeClock()
	s.origFactory = radioFactory
	radioFactory = func(*logrus.Logger) timesync.RadioFactory {
		return func() (device.Radio, error) { return s.clock, nil }
	}
}

func (s *CommandTestSuite) TearDownTest() {
	radioFactory = s.origFactory
}

// ExecuteCommand runs the root command with args and returns combined output
func (s *CommandTestSuite) ExecuteCommand(args ...string) (string, error) {
	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// resetFlags restores every flag of cmd and its children to its default
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

type fakeAdv struct{ name, addr string }

func (a fakeAdv) LocalName() string { return a.name }
func (a fakeAdv) Addr() string      { return a.addr }
func (a fakeAdv) RSSI() int         { return -48 }
func (a fakeAdv) Connectable() bool { return true }

type fakeChar struct {
	mu     sync.Mutex
	writes [][]byte
	err    error
}

func (c *fakeChar) UUID() string   { return "2a2b" }
func (c *fakeChar) CanWrite() bool { return true }
func (c *fakeChar) Write(data []byte, _ bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, append([]byte(nil), data...))
	return c.err
}

type fakeService struct{ chars []device.Characteristic }

func (s fakeService) UUID() string                             { return "1805" }
func (s fakeService) Characteristics() []device.Characteristic { return s.chars }

// fakeClock is a radio that sees one PlajTime advertisement and serves its GATT table
type fakeClock struct {
	advertising bool
	services    []device.Service
	char        *fakeChar
	gone        chan struct{}
	once        sync.Once
}

func newFakeClock() *fakeClock {
	char := &fakeChar{}
	return &fakeClock{
		advertising: true,
		char:        char,
		services:    []device.Service{fakeService{chars: []device.Characteristic{char}}},
		gone:        make(chan struct{}),
	}
}

func (c *fakeClock) Scan(ctx context.Context, _ bool, h func(device.Advertisement)) error {
	if c.advertising {
		h(fakeAdv{name: "PlajTime", addr: testClockAddress})
	}
	<-ctx.Done()
	return ctx.Err()
}

func (c *fakeClock) Dial(context.Context, string) (device.Client, error) { return c, nil }

func (c *fakeClock) Address() string                                            { return testClockAddress }
func (c *fakeClock) DiscoverServices(context.Context) ([]device.Service, error) { return c.services, nil }
func (c *fakeClock) Disconnected() <-chan struct{}                              { return c.gone }
func (c *fakeClock) CancelConnection() error {
	c.once.Do(func() { close(c.gone) })
	return nil
}
