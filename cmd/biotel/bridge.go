package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/biotel/biotel/internal/groutine"
	"github.com/biotel/biotel/internal/ptyio"
	"github.com/biotel/biotel/internal/session"
)

// bridgeCmd represents the bridge command
var bridgeCmd = &cobra.Command{
	Use:   "bridge <device-address>",
	Short: "Expose the sample stream on a PTY as CSV lines",
	Long: `Connects to the sensor and writes one CSV row per snapshot to a
pseudo-terminal, so serial-oriented tools can consume the biosignal
stream like a serial port.

Examples:
  # Bridge the sensor; the tty path is printed on startup
  biotel bridge AA:BB:CC:DD:EE:FF

  # Then, in another terminal:
  cat /dev/pts/3`,
	Args: cobra.ExactArgs(1),
	RunE: runBridge,
}

var (
	bridgeSimulated bool
	bridgeMode      string
	bridgeWriteCap  int
)

func init() {
	bridgeCmd.Flags().StringVar(&bridgeMode, "mode", "", "Acquisition mode: result, raw, or both (default from config)")
	bridgeCmd.Flags().BoolVar(&bridgeSimulated, "simulated", false, "Request the device's built-in simulated signal")
	bridgeCmd.Flags().IntVar(&bridgeWriteCap, "write-buffer", 0, "PTY write buffer capacity in bytes (default 64KiB)")
}

func runBridge(cmd *cobra.Command, args []string) error {
	address := args[0]

	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	if bridgeMode != "" {
		cfg.Mode = bridgeMode
	}
	if bridgeSimulated {
		cfg.Simulated = true
	}
	mode, err := cfg.ModeByte()
	if err != nil {
		return err
	}

	cmd.SilenceUsage = true

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pt, err := ptyio.New(&ptyio.Options{
		WriteCap: bridgeWriteCap,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("failed to allocate PTY: %w", err)
	}
	defer pt.Close()

	fmt.Printf("Sample stream available on %s\n", pt.TTYName())

	sess, pub := buildPipeline(cfg, logger)

	progress := NewProgressPrinter(fmt.Sprintf("Connecting to %s", address), "Handshake")
	progress.Start()
	err = sess.Start(ctx, &session.Options{
		DeviceID:  address,
		Mode:      mode,
		Simulated: cfg.Simulated,
	})
	progress.Stop()
	if err != nil {
		return err
	}
	defer sess.Stop()

	groutine.Go(ctx, "snapshot-publisher", pub.Run)

	headerDone := false
	for {
		select {
		case <-ctx.Done():
			printBridgeSummary(sess, pt)
			return nil
		case snap, ok := <-pub.Snapshots():
			if !ok {
				printBridgeSummary(sess, pt)
				return nil
			}
			ids := snapshotChannels(snap)
			if !headerDone {
				if _, err := pt.Write([]byte(formatCSVHeader(ids) + "\n")); err != nil {
					return fmt.Errorf("PTY write failed: %w", err)
				}
				headerDone = true
			}
			if _, err := pt.Write([]byte(formatCSVLine(snap, ids) + "\n")); err != nil {
				return fmt.Errorf("PTY write failed: %w", err)
			}
		}
	}
}

// printBridgeSummary reports ingest and PTY counters on exit.
func printBridgeSummary(sess *session.Session, pt *ptyio.PTY) {
	stats := sess.Stats()
	ptyStats := pt.Stats()
	fmt.Fprintf(os.Stderr, "\n%d frames, %d samples, %d malformed; %d bytes bridged, %d dropped\n",
		stats.Frames, stats.Samples, stats.MalformedFrames,
		ptyStats.WrittenBytes, ptyStats.DroppedBytes)
}
