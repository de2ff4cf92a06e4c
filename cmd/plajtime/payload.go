package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/plajta/plajtime/internal/timepayload"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// payloadJSON lays out a payload in wire order for --json output
func payloadJSON(p timepayload.Payload, f timepayload.Fields) *orderedmap.OrderedMap[string, any] {
	om := orderedmap.New[string, any]()
	om.Set("hex", p.Hex())
	om.Set("year", f.Year)
	om.Set("month", int(f.Month))
	om.Set("day", f.Day)
	om.Set("hours", f.Hours)
	om.Set("minutes", f.Minutes)
	om.Set("seconds", f.Seconds)
	om.Set("weekday", f.Weekday.String())
	om.Set("fractions256", f.Fractions256)
	om.Set("adjust_reason", f.AdjustReason.String())
	return om
}

func writePayload(out io.Writer, p timepayload.Payload, f timepayload.Fields, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(payloadJSON(p, f), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	fmt.Fprintf(out, "Payload:       %s\n", p.Hex())
	fmt.Fprintf(out, "Date:          %04d-%02d-%02d (%s)\n", f.Year, int(f.Month), f.Day, f.Weekday)
	fmt.Fprintf(out, "Time:          %02d:%02d:%02d + %d/256 s\n", f.Hours, f.Minutes, f.Seconds, f.Fractions256)
	fmt.Fprintf(out, "Adjust reason: %s\n", f.AdjustReason)
	return nil
}

func weekdayFlag(value string) (timepayload.WeekdayConvention, error) {
	if value == "" {
		return timepayload.SundayFirst, nil
	}
	return timepayload.ParseWeekdayConvention(value)
}

// parseAt accepts RFC 3339 or "2006-01-02 15:04:05" in the local zone; "" means now
func parseAt(value string, now func() time.Time) (time.Time, error) {
	if value == "" {
		return now(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04:05.999999999", value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: use RFC 3339 or \"YYYY-MM-DD hh:mm:ss\"", value)
	}
	return t, nil
}
