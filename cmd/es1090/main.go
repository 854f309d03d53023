package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"es1090/internal/app"
	"es1090/internal/config"
	"es1090/internal/logging"
)

// flags holds the command line values before they are applied to the
// loaded configuration.
type flags struct {
	configPath  string
	envFile     string
	input       string
	mode        string
	realtime    bool
	aircraftDB  string
	sbsDir      string
	utc         bool
	sbsStdout   bool
	metrics     string
	natsURL     string
	redisAddr   string
	record      string
	logLevel    string
	logFormat   string
	verbose     bool
	showVersion bool
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "es1090",
		Short: "Mode S extended squitter receiver",
		Long: `Mode S extended squitter (ADS-B) receiver.

Demodulates 12-bit samples taken at 20 MHz, or replays recorded frames or a
Beast feed, validates the CRC, decodes identification, airborne position and
airborne velocity messages and tracks every aircraft heard. Output goes to
daily BaseStation (SBS) files, NATS, Redis and Prometheus as configured.

Example usage:
  airspy_rx -r - -t 4 | es1090 --mode samples --sbs-dir ./logs
  es1090 --mode recording --input flight.bin --realtime --stdout`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.showVersion {
				app.PrintVersion(stdout)
				return nil
			}

			var envFiles []string
			if f.envFile != "" {
				envFiles = append(envFiles, f.envFile)
			}
			cfg, err := config.Read(f.configPath, envFiles...)
			if err != nil {
				return err
			}
			applyFlags(cmd, &f, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := logging.New(stderr, cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			application, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			return application.Run(ctx)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetContext(context.Background())

	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "YAML configuration file")
	fl.StringVar(&f.envFile, "env-file", "", "Environment file to load instead of .env")
	fl.StringVarP(&f.input, "input", "i", "-", "Input file, - for stdin")
	fl.StringVarP(&f.mode, "mode", "m", config.InputSamples, "Input mode: samples, recording or beast")
	fl.BoolVar(&f.realtime, "realtime", false, "Replay a recording at its original pace")
	fl.StringVar(&f.aircraftDB, "aircraft-db", "", "Aircraft database zip archive")
	fl.StringVarP(&f.sbsDir, "sbs-dir", "l", "", "Directory of the daily SBS files")
	fl.BoolVarP(&f.utc, "utc", "u", true, "Use UTC for SBS file rotation")
	fl.BoolVar(&f.sbsStdout, "stdout", false, "Also print SBS lines to stdout")
	fl.StringVar(&f.metrics, "metrics", "", "Prometheus listen address, e.g. :9090")
	fl.StringVar(&f.natsURL, "nats-url", "", "NATS server URL for decoded messages")
	fl.StringVar(&f.redisAddr, "redis-addr", "", "Redis address for aircraft snapshots")
	fl.StringVar(&f.record, "record", "", "Write every received frame to this recording file")
	fl.StringVar(&f.logLevel, "log-level", "info", "Log level")
	fl.StringVar(&f.logFormat, "log-format", "text", "Log format: text or json")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "Verbose logging, same as --log-level debug")
	fl.BoolVar(&f.showVersion, "version", false, "Show version information")

	return cmd
}

// applyFlags overrides cfg with the flags set on the command line.
func applyFlags(cmd *cobra.Command, f *flags, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("input") {
		cfg.Input.Path = f.input
	}
	if changed("mode") {
		cfg.Input.Mode = f.mode
	}
	if changed("realtime") {
		cfg.Input.Realtime = f.realtime
	}
	if changed("aircraft-db") {
		cfg.AircraftDB = f.aircraftDB
	}
	if changed("sbs-dir") {
		cfg.SBS.Dir = f.sbsDir
	}
	if changed("utc") {
		cfg.SBS.UTC = f.utc
	}
	if changed("stdout") {
		cfg.SBS.Stdout = f.sbsStdout
	}
	if changed("metrics") {
		cfg.Metrics.Listen = f.metrics
	}
	if changed("nats-url") {
		cfg.NATS.URL = f.natsURL
	}
	if changed("redis-addr") {
		cfg.Redis.Addr = f.redisAddr
	}
	if changed("record") {
		cfg.RecordPath = f.record
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if f.verbose {
		cfg.Log.Level = "debug"
	}
}
