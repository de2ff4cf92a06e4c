package main

import (
	"strings"

	"github.com/plajta/plajtime/internal/timepayload"
	"github.com/spf13/cobra"
)

// decodeCmd represents the decode command
var decodeCmd = &cobra.Command{
	Use:   "decode <hex>",
	Short: "Parse a Current Time characteristic value",
	Long: `Decode a 10-byte Current Time characteristic value given as hex.
Spaces, colons and 0x prefixes are accepted.`,
	Example: `  plajtime decode "E8 07 03 0F 0E 1E 2D 06 80 00"
  plajtime decode e807030f0e1e2d068000 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().String("weekday", "", "Weekday numbering (sunday-first, monday-first)")
	decodeCmd.Flags().Bool("json", false, "Print JSON")
}

func runDecode(cmd *cobra.Command, args []string) error {
	weekday, _ := cmd.Flags().GetString("weekday")
	asJSON, _ := cmd.Flags().GetBool("json")

	convention, err := weekdayFlag(weekday)
	if err != nil {
		return err
	}
	data, err := timepayload.ParseHex(strings.Join(args, " "))
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	f, err := timepayload.Decode(data, convention)
	if err != nil {
		return err
	}
	var p timepayload.Payload
	copy(p[:], data)
	return writePayload(cmd.OutOrStdout(), p, f, asJSON)
}
