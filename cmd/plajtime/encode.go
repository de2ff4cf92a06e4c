package main

import (
	"time"

	"github.com/plajta/plajtime/internal/timepayload"
	"github.com/spf13/cobra"
)

// now is the clock used by encode (can be overridden in tests)
var now = time.Now

// encodeCmd represents the encode command
var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Print the Current Time value that sync would write",
	Long: `Encode a timestamp into the 10-byte Current Time characteristic value.

Without --at the current local time is used, exactly as sync does.`,
	Example: `  plajtime encode
  plajtime encode --at 2024-03-15T14:30:45.5Z
  plajtime encode --at "2024-03-15 14:30:45" --weekday monday-first --json`,
	Args: cobra.NoArgs,
	RunE: runEncode,
}

func init() {
	encodeCmd.Flags().String("at", "", "Timestamp to encode (RFC 3339 or \"YYYY-MM-DD hh:mm:ss\", default now)")
	encodeCmd.Flags().String("weekday", "", "Weekday numbering (sunday-first, monday-first)")
	encodeCmd.Flags().Uint8("adjust-reason", 0, "Adjust reason bitfield (1 manual, 2 external, 4 time zone, 8 DST)")
	encodeCmd.Flags().Bool("json", false, "Print JSON")
}

func runEncode(cmd *cobra.Command, _ []string) error {
	at, _ := cmd.Flags().GetString("at")
	weekday, _ := cmd.Flags().GetString("weekday")
	reason, _ := cmd.Flags().GetUint8("adjust-reason")
	asJSON, _ := cmd.Flags().GetBool("json")

	ts, err := parseAt(at, now)
	if err != nil {
		return err
	}
	convention, err := weekdayFlag(weekday)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	p := timepayload.Encode(ts,
		timepayload.WithWeekdayConvention(convention),
		timepayload.WithAdjustReason(timepayload.AdjustReason(reason)),
	)
	f, err := timepayload.Decode(p.Bytes(), convention)
	if err != nil {
		return err
	}
	return writePayload(cmd.OutOrStdout(), p, f, asJSON)
}
