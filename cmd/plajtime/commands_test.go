package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/plajta/plajtime/internal/device"
	"github.com/plajta/plajtime/timesync"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

type CommandsTestSuite struct {
	CommandTestSuite
}

func (s *CommandsTestSuite) TestSyncWritesTime() {
	// GOAL: Verify sync finds the clock, writes 10 bytes once and reports success
	//
	// TEST SCENARIO: fake clock advertises → sync → one 10-byte write → "Time set on" line

	out, err := s.ExecuteCommand("sync", "--timeout", "2s")
	s.Require().NoError(err)

	s.Contains(out, "Looking for PlajTime (scanning...)")
	s.Contains(out, "Time set on "+testClockAddress)
	s.Require().Len(s.clock.char.writes, 1, "exactly one write MUST be issued")
	s.Len(s.clock.char.writes[0], 10)
}

func (s *CommandsTestSuite) TestSyncNotFound() {
	s.clock.advertising = false

	_, err := s.ExecuteCommand("sync", "--timeout", "50ms")

	s.ErrorIs(err, ErrNotFound)
	s.Equal(exitNotFound, exitCode(err))
	s.Contains(FormatUserError(err), "powered on and in range")
}

func (s *CommandsTestSuite) TestSyncWriteRejected() {
	s.clock.char.err = &device.StatusError{Status: 0x80}

	_, err := s.ExecuteCommand("sync", "--timeout", "2s")

	s.ErrorIs(err, device.ErrWriteFailed)
	s.Equal("the clock rejected the time (GATT status 0x80)", FormatUserError(err))
}

func (s *CommandsTestSuite) TestSyncBluetoothOff() {
	radioFactory = func(*logrus.Logger) timesync.RadioFactory {
		return func() (device.Radio, error) { return nil, device.ErrBluetoothOff }
	}

	_, err := s.ExecuteCommand("sync")

	s.ErrorIs(err, device.ErrPreconditionFailed)
	s.Equal(exitPrecondition, exitCode(err))
	s.Contains(FormatUserError(err), "Bluetooth is turned off")
}

func (s *CommandsTestSuite) TestSyncUsesConfigFile() {
	path := filepath.Join(s.T().TempDir(), "plajtime.yaml")
	s.Require().NoError(os.WriteFile(path, []byte("target_name: OtherClock\nscan_timeout: 50ms\n"), 0o600))

	_, err := s.ExecuteCommand("sync", "--config", path)

	s.ErrorIs(err, ErrNotFound, "clock advertising PlajTime MUST NOT match target_name OtherClock")
	s.Contains(err.Error(), `"OtherClock"`)
}

func (s *CommandsTestSuite) TestInvalidConfig() {
	path := filepath.Join(s.T().TempDir(), "plajtime.yaml")
	s.Require().NoError(os.WriteFile(path, []byte("scan_mode: turbo\n"), 0o600))

	_, err := s.ExecuteCommand("scan", "--config", path)
	s.ErrorContains(err, "invalid config")
}

func (s *CommandsTestSuite) TestInvalidLogLevel() {
	_, err := s.ExecuteCommand("scan", "--log-level", "loud")
	s.ErrorContains(err, "invalid log level")
}

func (s *CommandsTestSuite) TestScanPrintsAddress() {
	out, err := s.ExecuteCommand("scan", "--timeout", "2s")
	s.Require().NoError(err)

	s.Contains(out, testClockAddress)
	s.Contains(out, "rssi -48 dBm")
	s.Empty(s.clock.char.writes, "scan MUST NOT write to the clock")
}

func (s *CommandsTestSuite) TestEncode() {
	out, err := s.ExecuteCommand("encode", "--at", "2024-03-15T14:30:45.5Z")
	s.Require().NoError(err)

	s.Contains(out, "Payload:       E8 07 03 0F 0E 1E 2D 06 80 00")
	s.Contains(out, "2024-03-15 (Friday)")
	s.Contains(out, "14:30:45 + 128/256 s")
}

func (s *CommandsTestSuite) TestEncodeNow() {
	orig := now
	defer func() { now = orig }()
	now = func() time.Time { return time.Date(2024, time.March, 15, 14, 30, 45, 5e8, time.UTC) }

	out, err := s.ExecuteCommand("encode", "--weekday", "monday-first", "--adjust-reason", "1")
	s.Require().NoError(err)
	s.Contains(out, "E8 07 03 0F 0E 1E 2D 05 80 01")
	s.Contains(out, "Adjust reason: manual")
}

func (s *CommandsTestSuite) TestDecodeJSON() {
	out, err := s.ExecuteCommand("decode", "E8", "07", "03", "0F", "0E", "1E", "2D", "06", "80", "00", "--json")
	s.Require().NoError(err)

	var got map[string]any
	s.Require().NoError(json.Unmarshal([]byte(out), &got))
	s.Equal("E8 07 03 0F 0E 1E 2D 06 80 00", got["hex"])
	s.Equal(float64(2024), got["year"])
	s.Equal("Friday", got["weekday"])
	s.Equal(float64(128), got["fractions256"])
	s.Equal("none", got["adjust_reason"])

	s.Less(strings.Index(out, `"hex"`), strings.Index(out, `"year"`), "JSON fields MUST follow wire order")
	s.Less(strings.Index(out, `"year"`), strings.Index(out, `"adjust_reason"`))
}

func (s *CommandsTestSuite) TestDecodeRejectsBadInput() {
	_, err := s.ExecuteCommand("decode", "E807")
	s.ErrorContains(err, "invalid payload length 2")

	_, err = s.ExecuteCommand("decode", "zz")
	s.ErrorContains(err, "invalid hex payload")
}

func TestCommandsTestSuite(t *testing.T) {
	suite.Run(t, new(CommandsTestSuite))
}
