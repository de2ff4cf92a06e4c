package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/plajta/plajtime/internal/device"
	"github.com/plajta/plajtime/scanner"
	"github.com/spf13/cobra"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Look for the clock and print its address",
	Long: `Scan for a device advertising the PlajTime name and print the address and
signal strength of the first one seen. Nothing is written to the device.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	addScanFlags(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setupCommand(cmd)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	ctx, cancel := interruptContext(cmd)
	defer cancel()

	openRadio := radioFactory(logger)
	var radio device.Radio
	controller := scanner.NewController(func() (device.ScanningDevice, error) {
		r, err := openRadio()
		if err != nil {
			return nil, err
		}
		radio = r
		return r, nil
	}, logger)
	defer func() {
		if c, ok := radio.(io.Closer); ok {
			_ = c.Close()
		}
	}()

	out := cmd.OutOrStdout()
	outcomes, err := controller.Start(ctx, cfg.ScanRequest())
	if err != nil {
		return err
	}

	progress := NewProgressPrinter(out, fmt.Sprintf("Looking for %s", cfg.TargetName), "scanning", cfg.ScanTimeout)
	progress.Start()
	outcome := <-outcomes
	progress.Stop()

	switch outcome.Kind {
	case scanner.Found:
		fmt.Fprintf(out, "%s %s  %s  rssi %d dBm\n", color.GreenString("✓"), outcome.Name, outcome.Address, outcome.RSSI)
		return nil
	case scanner.TimedOut:
		return fmt.Errorf("%w: no %q advertisement within %s", ErrNotFound, cfg.TargetName, cfg.ScanTimeout)
	default:
		return outcome.Err()
	}
}
