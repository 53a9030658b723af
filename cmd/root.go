package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/0xlemi/notelisten/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// options are the command-line settings that are not part of the config file.
type options struct {
	configPath string
	plain      bool
	verbose    bool

	simulate      float64 // Tone frequency in Hz; zero records from the microphone
	simulateNoise float64
}

// flagValues hold config overrides; they apply only when set on the command line.
type flagValues struct {
	duration    time.Duration
	sampleRate  int
	blockSize   int
	channels    int
	threshold   float64
	minFreq     float64
	maxFreq     float64
	snr         float64
	workers     int
	logLevel    string
	metricsAddr string
}

func newRootCommand(exitCode *int) *cobra.Command {
	var opts options
	var fv flagValues

	cmd := &cobra.Command{
		Use:   "notelisten",
		Short: "Listen to the microphone and print the musical note being played",
		Long: `notelisten records from the default input device for a while and reports
the dominant pitch of every block as a frequency and the nearest
equal-tempered note.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts.configPath, cmd.Flags(), &fv)
			if err != nil {
				return err
			}
			*exitCode = listenCmd(cmd.Context(), cfg, opts)
			return nil
		},
	}

	bindFlags(cmd.Flags(), &opts, &fv)
	return cmd
}

// bindFlags registers the command-line flags on f.
func bindFlags(f *pflag.FlagSet, opts *options, fv *flagValues) {
	f.StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	f.BoolVar(&opts.plain, "plain", false, "print one line per note instead of the full-screen display")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "also print rejected blocks (plain mode)")
	f.Float64Var(&opts.simulate, "simulate", 0, "analyse a synthetic tone of this frequency in Hz instead of the microphone")
	f.Float64Var(&opts.simulateNoise, "simulate-noise", 0, "amplitude of noise mixed into the synthetic tone")

	def := config.Default()
	f.DurationVarP(&fv.duration, "duration", "d", def.Audio.Duration, "how long to listen (0 listens until interrupted)")
	f.IntVar(&fv.sampleRate, "sample-rate", def.Audio.SampleRate, "sample rate in Hz")
	f.IntVar(&fv.blockSize, "block-size", def.Audio.BlockSize, "frames per analysed block")
	f.IntVar(&fv.channels, "channels", def.Audio.Channels, "input channels to open (only the first is analysed)")
	f.Float64Var(&fv.threshold, "threshold", def.Detector.LoudnessThreshold, "RMS level a block must exceed to be analysed")
	f.Float64Var(&fv.minFreq, "min-freq", def.Detector.MinFrequency, "lowest frequency considered, Hz")
	f.Float64Var(&fv.maxFreq, "max-freq", def.Detector.MaxFrequency, "highest frequency considered, Hz")
	f.Float64Var(&fv.snr, "snr", def.Detector.SNRThreshold, "peak to noise floor ratio a pitch must exceed")
	f.IntVar(&fv.workers, "workers", def.Session.Workers, "blocks analysed concurrently")
	f.StringVar(&fv.logLevel, "log-level", string(def.LogLevel), "debug, info, warn or error")
	f.StringVar(&fv.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9464")
}

// loadConfig reads the config file, if any, then applies flags the user set
// explicitly so they win over file values.
func loadConfig(path string, flags *pflag.FlagSet, fv *flagValues) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	if flags.Changed("duration") {
		cfg.Audio.Duration = fv.duration
	}
	if flags.Changed("sample-rate") {
		cfg.Audio.SampleRate = fv.sampleRate
	}
	if flags.Changed("block-size") {
		cfg.Audio.BlockSize = fv.blockSize
	}
	if flags.Changed("channels") {
		cfg.Audio.Channels = fv.channels
	}
	if flags.Changed("threshold") {
		cfg.Detector.LoudnessThreshold = fv.threshold
	}
	if flags.Changed("min-freq") {
		cfg.Detector.MinFrequency = fv.minFreq
	}
	if flags.Changed("max-freq") {
		cfg.Detector.MaxFrequency = fv.maxFreq
	}
	if flags.Changed("snr") {
		cfg.Detector.SNRThreshold = fv.snr
	}
	if flags.Changed("workers") {
		cfg.Session.Workers = fv.workers
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = config.LogLevel(fv.logLevel)
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.ListenAddr = fv.metricsAddr
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}
