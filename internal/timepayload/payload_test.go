package timepayload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reference = time.Date(2024, time.March, 15, 14, 30, 45, 500*int(time.Millisecond), time.UTC)

func TestEncode_ReferenceVector(t *testing.T) {
	// GOAL: Friday 2024-03-15 14:30:45.500 encodes to the documented wire bytes
	//
	// TEST SCENARIO: default options → year LE, Sunday-first weekday 6, 0x80 fractions, no adjust flags

	p := Encode(reference)

	assert.Equal(t, Payload{0xE8, 0x07, 0x03, 0x0F, 0x0E, 0x1E, 0x2D, 0x06, 0x80, 0x00}, p)
	assert.Equal(t, "E8 07 03 0F 0E 1E 2D 06 80 00", p.Hex())
}

func TestEncode_AlwaysTenBytes(t *testing.T) {
	times := []time.Time{
		time.Date(0, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1999, time.December, 31, 23, 59, 59, 999999999, time.UTC),
		time.Date(2100, time.February, 28, 12, 0, 0, 1, time.UTC),
		time.Date(65535, time.July, 4, 1, 2, 3, 0, time.UTC),
		time.Now(),
	}

	for _, ts := range times {
		b := Encode(ts).Bytes()
		assert.Len(t, b, Size, "payload for %s MUST be exactly 10 bytes", ts)
	}
}

func TestEncode_Fractions(t *testing.T) {
	tests := []struct {
		name     string
		nanos    int
		expected byte
	}{
		{"zero", 0, 0x00},
		{"just under one step", 3_906_249, 0x00},
		{"one step", 3_906_250, 0x01},
		{"250ms", 250_000_000, 0x40},
		{"500ms", 500_000_000, 0x80},
		{"999ms truncates", 999_000_000, 0xFF},
		{"last nanosecond", 999_999_999, 0xFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := time.Date(2024, time.March, 15, 0, 0, 0, tt.nanos, time.UTC)
			assert.Equal(t, tt.expected, Encode(ts)[offFractions])
		})
	}
}

func TestEncode_WeekdayConventions(t *testing.T) {
	// 2024-03-10 is a Sunday
	sunday := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 7; i++ {
		day := sunday.AddDate(0, 0, i)

		sundayFirst := Encode(day)[offWeekday]
		mondayFirst := Encode(day, WithWeekdayConvention(MondayFirst))[offWeekday]

		assert.Equal(t, byte(i+1), sundayFirst, "%s sunday-first", day.Weekday())
		expectedMonday := byte(i)
		if i == 0 {
			expectedMonday = 7
		}
		assert.Equal(t, expectedMonday, mondayFirst, "%s monday-first", day.Weekday())
	}
}

func TestEncode_AdjustReasonAndYear(t *testing.T) {
	p := Encode(reference, WithAdjustReason(AdjustManual|AdjustTimeZone))
	assert.Equal(t, byte(0x05), p[offAdjustReason])

	p = Encode(time.Date(65536+2024, time.March, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, byte(0xE8), p[offYearLow], "year MUST wrap to uint16")
	assert.Equal(t, byte(0x07), p[offYearHigh])
}

func TestEncode_UsesTimeLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	p := Encode(reference.In(loc))
	assert.Equal(t, byte(16), p[offHours])
}

func TestDecode_RoundTripsReference(t *testing.T) {
	f, err := Decode(Encode(reference).Bytes(), SundayFirst)
	require.NoError(t, err)

	assert.Equal(t, 2024, f.Year)
	assert.Equal(t, time.March, f.Month)
	assert.Equal(t, 15, f.Day)
	assert.Equal(t, time.Friday, f.Weekday)
	assert.Equal(t, 0x80, f.Fractions256)
	assert.Equal(t, reference, f.Time(time.UTC))
}

func TestDecode_Rejects(t *testing.T) {
	valid := Encode(reference)

	tests := []struct {
		name   string
		mutate func([]byte) []byte
		errMsg string
	}{
		{"short", func(b []byte) []byte { return b[:9] }, "invalid payload length 9"},
		{"month zero", func(b []byte) []byte { b[offMonth] = 0; return b }, "month out of range"},
		{"day 32", func(b []byte) []byte { b[offDay] = 32; return b }, "day out of range"},
		{"hour 24", func(b []byte) []byte { b[offHours] = 24; return b }, "hours out of range"},
		{"minute 60", func(b []byte) []byte { b[offMinutes] = 60; return b }, "minutes out of range"},
		{"second 60", func(b []byte) []byte { b[offSeconds] = 60; return b }, "seconds out of range"},
		{"weekday zero", func(b []byte) []byte { b[offWeekday] = 0; return b }, "weekday out of range"},
		{"weekday eight", func(b []byte) []byte { b[offWeekday] = 8; return b }, "weekday out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.mutate(valid.Bytes()), SundayFirst)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestParseHex(t *testing.T) {
	for _, in := range []string{
		"E8 07 03 0F 0E 1E 2D 06 80 00",
		"e807030f0e1e2d068000",
		"E8:07:03:0F:0E:1E:2D:06:80:00",
		"0xE8,0x07,0x03,0x0F,0x0E,0x1E,0x2D,0x06,0x80,0x00",
	} {
		b, err := ParseHex(in)
		require.NoError(t, err, in)
		assert.Equal(t, Encode(reference).Bytes(), b, in)
	}

	_, err := ParseHex("zz")
	assert.Error(t, err)
}

func TestParseWeekdayConvention(t *testing.T) {
	c, err := ParseWeekdayConvention("Monday-First")
	require.NoError(t, err)
	assert.Equal(t, MondayFirst, c)
	assert.Equal(t, "monday-first", c.String())

	c, err = ParseWeekdayConvention("sunday-first")
	require.NoError(t, err)
	assert.Equal(t, SundayFirst, c)

	_, err = ParseWeekdayConvention("tuesday")
	assert.Error(t, err)
}

func TestAdjustReason_String(t *testing.T) {
	assert.Equal(t, "none", AdjustReason(0).String())
	assert.Equal(t, "manual|dst", (AdjustManual | AdjustDST).String())
	assert.Equal(t, "time-zone|0x80", (AdjustTimeZone | 0x80).String())
}
