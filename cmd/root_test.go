package main

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/0xlemi/notelisten/internal/config"
)

func parse(t *testing.T, args ...string) (*pflag.FlagSet, *options, *flagValues) {
	t.Helper()
	var opts options
	var fv flagValues
	f := pflag.NewFlagSet("notelisten", pflag.ContinueOnError)
	bindFlags(f, &opts, &fv)
	if err := f.Parse(args); err != nil {
		t.Fatalf("Parse(%v): %v", args, err)
	}
	return f, &opts, &fv
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Parallel()

	f, opts, fv := parse(t)
	cfg, err := loadConfig(opts.configPath, f, fv)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Audio.Duration != 15*time.Second || cfg.Detector.SNRThreshold != 10 || cfg.Session.Workers != 1 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if opts.plain || opts.simulate != 0 {
		t.Errorf("unexpected options: %+v", opts)
	}
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "notelisten.yaml")
	yaml := "audio:\n  block_size: 8192\n  duration: 30s\ndetector:\n  snr_threshold: 12\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	f, opts, fv := parse(t, "--config", path, "--snr", "20", "-d", "5s", "--workers", "3", "--plain", "--simulate", "440")
	cfg, err := loadConfig(opts.configPath, f, fv)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.Audio.BlockSize != 8192 {
		t.Errorf("block_size = %d, want 8192 from file", cfg.Audio.BlockSize)
	}
	if cfg.Detector.SNRThreshold != 20 {
		t.Errorf("snr = %v, want 20 from flag", cfg.Detector.SNRThreshold)
	}
	if cfg.Audio.Duration != 5*time.Second {
		t.Errorf("duration = %v, want 5s from flag", cfg.Audio.Duration)
	}
	if cfg.Session.Workers != 3 {
		t.Errorf("workers = %d, want 3", cfg.Session.Workers)
	}
	if !opts.plain || opts.simulate != 440 {
		t.Errorf("options = %+v", opts)
	}
}

func TestLoadConfig_InvalidFlag(t *testing.T) {
	t.Parallel()

	f, opts, fv := parse(t, "--min-freq", "0", "--workers", "0")
	_, err := loadConfig(opts.configPath, f, fv)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"min_frequency", "workers"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Parallel()

	f, opts, fv := parse(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := loadConfig(opts.configPath, f, fv); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want not-exist", err)
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	if !newLogger(config.LogDebug).Enabled(t.Context(), slog.LevelDebug) {
		t.Error("debug logger should enable debug")
	}
	if newLogger(config.LogError).Enabled(t.Context(), slog.LevelInfo) {
		t.Error("error logger should not enable info")
	}
}
