// Package timepayload encodes timestamps into the 10-byte Current Time characteristic value.
package timepayload

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Size is the length of an encoded Current Time value
const Size = 10

// Byte offsets inside a Payload
const (
	offYearLow = iota
	offYearHigh
	offMonth
	offDay
	offHours
	offMinutes
	offSeconds
	offWeekday
	offFractions
	offAdjustReason
)

// Payload is the wire form of a Current Time characteristic value
type Payload [Size]byte

// Bytes returns the payload as a slice ready for a characteristic write
func (p Payload) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, p[:])
	return b
}

// Hex renders the payload as space separated upper-case hex, e.g. "E8 07 03 ..."
func (p Payload) Hex() string {
	parts := make([]string, Size)
	for i, b := range p {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, " ")
}

// WeekdayConvention selects how day-of-week is numbered in the weekday byte
type WeekdayConvention int

const (
	// SundayFirst numbers Sunday=1 ... Saturday=7
	SundayFirst WeekdayConvention = iota
	// MondayFirst numbers Monday=1 ... Sunday=7 (Bluetooth SIG Day of Week)
	MondayFirst
)

func (c WeekdayConvention) String() string {
	switch c {
	case SundayFirst:
		return "sunday-first"
	case MondayFirst:
		return "monday-first"
	default:
		return fmt.Sprintf("WeekdayConvention(%d)", int(c))
	}
}

// ParseWeekdayConvention parses "sunday-first" or "monday-first"
func ParseWeekdayConvention(s string) (WeekdayConvention, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sunday-first", "sunday":
		return SundayFirst, nil
	case "monday-first", "monday", "sig":
		return MondayFirst, nil
	default:
		return SundayFirst, fmt.Errorf("unknown weekday convention %q (expected sunday-first or monday-first)", s)
	}
}

// weekday maps a time.Weekday to 1..7
func (c WeekdayConvention) weekday(d time.Weekday) byte {
	if c == MondayFirst {
		if d == time.Sunday {
			return 7
		}
		return byte(d)
	}
	return byte(d) + 1
}

// fromByte maps a 1..7 weekday byte back to time.Weekday
func (c WeekdayConvention) fromByte(b byte) (time.Weekday, bool) {
	if b < 1 || b > 7 {
		return 0, false
	}
	if c == MondayFirst {
		return time.Weekday(b % 7), true
	}
	return time.Weekday(b - 1), true
}

// AdjustReason is the bitfield carried in the last payload byte
type AdjustReason uint8

const (
	AdjustManual            AdjustReason = 1 << 0
	AdjustExternalReference AdjustReason = 1 << 1
	AdjustTimeZone          AdjustReason = 1 << 2
	AdjustDST               AdjustReason = 1 << 3
)

func (r AdjustReason) String() string {
	if r == 0 {
		return "none"
	}
	var names []string
	for _, f := range []struct {
		bit  AdjustReason
		name string
	}{
		{AdjustManual, "manual"},
		{AdjustExternalReference, "external-reference"},
		{AdjustTimeZone, "time-zone"},
		{AdjustDST, "dst"},
	} {
		if r&f.bit != 0 {
			names = append(names, f.name)
		}
	}
	if rest := r &^ (AdjustManual | AdjustExternalReference | AdjustTimeZone | AdjustDST); rest != 0 {
		names = append(names, fmt.Sprintf("0x%02x", uint8(rest)))
	}
	return strings.Join(names, "|")
}

type options struct {
	weekdays WeekdayConvention
	reason   AdjustReason
}

// Option customizes Encode
type Option func(*options)

// WithWeekdayConvention selects the weekday numbering (default SundayFirst)
func WithWeekdayConvention(c WeekdayConvention) Option {
	return func(o *options) { o.weekdays = c }
}

// WithAdjustReason sets the adjust reason byte (default 0)
func WithAdjustReason(r AdjustReason) Option {
	return func(o *options) { o.reason = r }
}

// Encode converts t, in its own location, into a Current Time payload.
// Fractions are nanoseconds scaled to 1/256 s and truncated.
// Years outside the uint16 range wrap.
func Encode(t time.Time, opts ...Option) Payload {
	o := options{weekdays: SundayFirst}
	for _, opt := range opts {
		opt(&o)
	}

	var p Payload
	year := uint16(t.Year())
	p[offYearLow] = byte(year)
	p[offYearHigh] = byte(year >> 8)
	p[offMonth] = byte(t.Month())
	p[offDay] = byte(t.Day())
	p[offHours] = byte(t.Hour())
	p[offMinutes] = byte(t.Minute())
	p[offSeconds] = byte(t.Second())
	p[offWeekday] = o.weekdays.weekday(t.Weekday())
	p[offFractions] = byte(int64(t.Nanosecond()) * 256 / int64(time.Second))
	p[offAdjustReason] = byte(o.reason)
	return p
}

// Fields is the decoded view of a payload
type Fields struct {
	Year         int
	Month        time.Month
	Day          int
	Hours        int
	Minutes      int
	Seconds      int
	Weekday      time.Weekday
	Fractions256 int
	AdjustReason AdjustReason
}

// Time rebuilds the timestamp in loc. Fractions are expanded back to nanoseconds.
func (f Fields) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	nanos := f.Fractions256 * int(time.Second) / 256
	return time.Date(f.Year, f.Month, f.Day, f.Hours, f.Minutes, f.Seconds, nanos, loc)
}

// Decode parses a raw Current Time value. The weekday byte is read using c.
func Decode(data []byte, c WeekdayConvention) (Fields, error) {
	if len(data) != Size {
		return Fields{}, fmt.Errorf("invalid payload length %d (expected %d)", len(data), Size)
	}

	f := Fields{
		Year:         int(data[offYearLow]) | int(data[offYearHigh])<<8,
		Month:        time.Month(data[offMonth]),
		Day:          int(data[offDay]),
		Hours:        int(data[offHours]),
		Minutes:      int(data[offMinutes]),
		Seconds:      int(data[offSeconds]),
		Fractions256: int(data[offFractions]),
		AdjustReason: AdjustReason(data[offAdjustReason]),
	}

	switch {
	case f.Month < time.January || f.Month > time.December:
		return f, fmt.Errorf("month out of range: %d", f.Month)
	case f.Day < 1 || f.Day > 31:
		return f, fmt.Errorf("day out of range: %d", f.Day)
	case f.Hours > 23:
		return f, fmt.Errorf("hours out of range: %d", f.Hours)
	case f.Minutes > 59:
		return f, fmt.Errorf("minutes out of range: %d", f.Minutes)
	case f.Seconds > 59:
		return f, fmt.Errorf("seconds out of range: %d", f.Seconds)
	}

	wd, ok := c.fromByte(data[offWeekday])
	if !ok {
		return f, fmt.Errorf("weekday out of range: %d", data[offWeekday])
	}
	f.Weekday = wd
	return f, nil
}

// ParseHex accepts "E8 07 ...", "e807...", or "E8:07:..." and returns the raw bytes
func ParseHex(s string) ([]byte, error) {
	clean := strings.NewReplacer(" ", "", ":", "", "-", "", ",", "", "0x", "", "0X", "").Replace(strings.TrimSpace(s))
	b, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex payload %q: %w", s, err)
	}
	return b, nil
}
