package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/plajta/plajtime/internal/device"
	goble "github.com/plajta/plajtime/internal/device/go-ble"
	"github.com/plajta/plajtime/pkg/config"
	"github.com/plajta/plajtime/timesync"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// radioFactory opens the host BLE adapter (can be overridden in tests)
var radioFactory = func(logger *logrus.Logger) timesync.RadioFactory {
	return func() (device.Radio, error) {
		r, err := goble.NewRadio(logger)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Find the clock and write the current time to it",
	Long: `Scan for the PlajTime clock, connect to the first one found and write the
current local time into its Current Time characteristic.

The attempt is not retried: if the clock is not found, or the connection fails,
run the command again.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	addScanFlags(syncCmd)
	syncCmd.Flags().String("weekday", "", "Weekday numbering written to the clock (sunday-first, monday-first)")
}

// addScanFlags registers flags shared by sync and scan
func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "Advertised name to look for (default PlajTime)")
	cmd.Flags().DurationP("timeout", "t", 0, "Scan timeout (default 10s)")
}

// applyFlags overrides config values with explicitly set command flags
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("name") {
		cfg.TargetName, _ = cmd.Flags().GetString("name")
	}
	if cmd.Flags().Changed("timeout") {
		cfg.ScanTimeout, _ = cmd.Flags().GetDuration("timeout")
	}
	if f := cmd.Flags().Lookup("weekday"); f != nil && f.Changed {
		cfg.WeekdayConvention = f.Value.String()
	}
	return cfg.Validate()
}

// setupCommand loads config, applies flags and configures the logger
func setupCommand(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
	cfg, fromFile, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, nil, err
	}
	logger, err := configureLogger(cmd, "verbose", cfg, fromFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// interruptContext is cancelled on Ctrl+C or SIGTERM
func interruptContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setupCommand(cmd)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	ctx, cancel := interruptContext(cmd)
	defer cancel()

	driver := timesync.NewDriver(radioFactory(logger), logger,
		timesync.WithScanRequest(cfg.ScanRequest()),
		timesync.WithSessionOptions(cfg.SessionOptions()...),
	)
	defer func() {
		if err := driver.Close(); err != nil {
			logger.WithError(err).Debug("Failed to close BLE device")
		}
	}()

	events, err := driver.RequestScan(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	progress := NewProgressPrinter(out, fmt.Sprintf("Looking for %s", cfg.TargetName), "scanning", cfg.ScanTimeout)
	progress.Start()
	defer progress.Stop()

	var last timesync.Event
	for ev := range events {
		logger.WithField("event", ev.Kind).Debug("Time sync event")
		if ev.Kind == timesync.Found {
			progress.SetPhase(fmt.Sprintf("syncing %s", ev.Address))
		}
		last = ev
	}
	progress.Stop()

	switch last.Kind {
	case timesync.SyncSucceeded:
		fmt.Fprintf(out, "%s Time set on %s [%s]\n", color.GreenString("✓"), last.Address, last.Payload.Hex())
		return nil
	case timesync.TimedOut:
		return fmt.Errorf("%w: no %q advertisement within %s", ErrNotFound, cfg.TargetName, cfg.ScanTimeout)
	case timesync.Cancelled:
		return context.Canceled
	default:
		return last.Err
	}
}
