package scanner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultScanRequest(t *testing.T) {
	req := DefaultScanRequest()

	assert.Equal(t, "PlajTime", req.TargetName)
	assert.Equal(t, 10*time.Second, req.Timeout)
	assert.Equal(t, LowLatency, req.Mode)
	assert.NoError(t, req.Validate())
}

func TestParseScanMode(t *testing.T) {
	tests := []struct {
		in       string
		expected ScanMode
	}{
		{"low-latency", LowLatency},
		{"", LowLatency},
		{"Balanced", Balanced},
		{"low-power", LowPower},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := ParseScanMode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, m)
		})
	}

	_, err := ParseScanMode("turbo")
	assert.Error(t, err)
	assert.Equal(t, "low-power", LowPower.String())
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "timed-out", Outcome{Kind: TimedOut}.String())
	assert.Equal(t, "found AA (PlajTime, rssi -50)", Outcome{Kind: Found, Address: "AA", Name: "PlajTime", RSSI: -50}.String())
	assert.Equal(t, "failed: internal-error", Outcome{Kind: Failed, Reason: 3}.String())
}
