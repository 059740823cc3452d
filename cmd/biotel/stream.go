package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/biotel/biotel/internal/groutine"
	"github.com/biotel/biotel/internal/sample"
	"github.com/biotel/biotel/internal/session"
	"github.com/biotel/biotel/internal/stream"
	"github.com/biotel/biotel/internal/transport/goble"
	"github.com/biotel/biotel/pkg/config"
)

// streamCmd represents the stream command
var streamCmd = &cobra.Command{
	Use:   "stream <device-address>",
	Short: "Stream de-interleaved sensor channels to the terminal",
	Long: `Connects to the sensor, runs the configuration handshake and streams
the de-interleaved biosignal channels (PPG infrared, PPG red, ECG).

Output formats:
  table - one live status line, latest value per channel (default)
  csv   - one CSV row per snapshot, suitable for serial plotters

Examples:
  # Live view with defaults (both raw and result data, 25ms refresh)
  biotel stream AA:BB:CC:DD:EE:FF

  # Raw samples only, CSV rows, device-side simulated signal
  biotel stream AA:BB:CC:DD:EE:FF --mode raw --simulated --format csv

  # Slower refresh with a larger visible window
  biotel stream AA:BB:CC:DD:EE:FF --period 100ms --window 400`,
	Args: cobra.ExactArgs(1),
	RunE: runStream,
}

var (
	streamMode      string
	streamSimulated bool
	streamPeriod    time.Duration
	streamWindow    int
	streamFormat    string
	streamDuration  time.Duration
)

func init() {
	streamCmd.Flags().StringVar(&streamMode, "mode", "", "Acquisition mode: result, raw, or both (default from config)")
	streamCmd.Flags().BoolVar(&streamSimulated, "simulated", false, "Request the device's built-in simulated signal")
	streamCmd.Flags().DurationVar(&streamPeriod, "period", 0, "Snapshot publish period (default from config, 25ms)")
	streamCmd.Flags().IntVar(&streamWindow, "window", 0, "Published rolling window size per channel (default from config, 100)")
	streamCmd.Flags().StringVar(&streamFormat, "format", "table", "Output format: table or csv")
	streamCmd.Flags().DurationVar(&streamDuration, "duration", 0, "Stop after this duration; 0 streams until interrupted")
}

// applyStreamFlags folds command-line overrides into the configuration.
func applyStreamFlags(cfg *config.Config) {
	if streamMode != "" {
		cfg.Mode = streamMode
	}
	if streamSimulated {
		cfg.Simulated = true
	}
	if streamPeriod > 0 {
		cfg.PublishPeriod = streamPeriod
	}
	if streamWindow > 0 {
		cfg.WindowSize = streamWindow
	}
}

// buildPipeline wires the shared sample buffer, the session over a
// go-ble transport, and the snapshot publisher.
func buildPipeline(cfg *config.Config, logger *logrus.Logger) (*session.Session, *stream.Publisher) {
	buffers := sample.NewBuffer(cfg.BufferCapacity)
	tr := goble.New(logger, cfg.ConnectTimeout)
	sess := session.New(tr, buffers, logger)
	pub := stream.NewPublisher(buffers, &stream.Options{
		Period:     cfg.PublishPeriod,
		WindowSize: cfg.WindowSize,
	}, logger)
	return sess, pub
}

func runStream(cmd *cobra.Command, args []string) error {
	address := args[0]

	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	applyStreamFlags(cfg)

	mode, err := cfg.ModeByte()
	if err != nil {
		return err
	}
	if streamFormat != "table" && streamFormat != "csv" {
		return fmt.Errorf("invalid format %q: use table or csv", streamFormat)
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if streamDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, streamDuration)
		defer cancel()
	}

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

	csvHeaderDone := false
	for {
		select {
		case <-ctx.Done():
			printStreamSummary(sess)
			return nil
		case snap, ok := <-pub.Snapshots():
			if !ok {
				printStreamSummary(sess)
				return nil
			}
			ids := snapshotChannels(snap)
			switch streamFormat {
			case "csv":
				if !csvHeaderDone {
					fmt.Println(formatCSVHeader(ids))
					csvHeaderDone = true
				}
				fmt.Println(formatCSVLine(snap, ids))
			default:
				fmt.Printf("%s%s", clearLineSequence, formatTableLine(snap, ids))
			}
		}
	}
}

// printStreamSummary reports the ingest counters on exit.
func printStreamSummary(sess *session.Session) {
	stats := sess.Stats()
	fmt.Fprintf(os.Stderr, "\n%d frames, %d samples, %d malformed\n",
		stats.Frames, stats.Samples, stats.MalformedFrames)
}
