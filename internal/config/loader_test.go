package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/0xlemi/notelisten/internal/config"
	"github.com/0xlemi/notelisten/internal/pitch"
)

func TestLoadFromReader_EmptyUsesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Audio.SampleRate != 44100 || cfg.Audio.BlockSize != 4096 || cfg.Audio.Duration != 15*time.Second {
		t.Errorf("audio defaults: %+v", cfg.Audio)
	}
	if got := cfg.Pitch(); got != pitch.DefaultConfig() {
		t.Errorf("pitch config: got %+v, want %+v", got, pitch.DefaultConfig())
	}
	if cfg.Session.Workers != 1 || cfg.LogLevel != config.LogInfo {
		t.Errorf("session/log defaults: %+v %q", cfg.Session, cfg.LogLevel)
	}
}

func TestLoadFromReader_Overrides(t *testing.T) {
	t.Parallel()
	yaml := `
log_level: debug
audio:
  sample_rate: 48000
  duration: 2m30s
detector:
  snr_threshold: 6.5
session:
  workers: 4
metrics:
  listen_addr: ":9464"
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.LogLevel != config.LogDebug {
		t.Errorf("log level: %q", cfg.LogLevel)
	}
	if cfg.Audio.SampleRate != 48000 || cfg.Audio.Duration != 150*time.Second {
		t.Errorf("audio: %+v", cfg.Audio)
	}
	if cfg.Audio.BlockSize != 4096 {
		t.Errorf("unset block_size should keep its default, got %d", cfg.Audio.BlockSize)
	}
	if cfg.Detector.SNRThreshold != 6.5 || cfg.Detector.MinFrequency != 50 {
		t.Errorf("detector: %+v", cfg.Detector)
	}
	if cfg.Session.Workers != 4 || cfg.Metrics.ListenAddr != ":9464" {
		t.Errorf("session/metrics: %+v %+v", cfg.Session, cfg.Metrics)
	}
	if got := cfg.Pitch().SampleRate; got != 48000 {
		t.Errorf("pitch sample rate: %d", got)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("audio:\n  samplerate: 8000\n"))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
	if !strings.Contains(err.Error(), "samplerate") {
		t.Errorf("error should name the field, got: %v", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Parallel()
	yaml := `
log_level: loud
audio:
  sample_rate: 0
  block_size: -1
  channels: 0
  duration: -1s
detector:
  loudness_threshold: -0.1
  min_frequency: 0
  max_frequency: -5
  snr_threshold: -1
session:
  workers: 0
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected validation errors, got nil")
	}
	for _, want := range []string{
		"log_level", "audio.sample_rate", "audio.block_size", "audio.channels", "audio.duration",
		"detector.loudness_threshold", "detector.min_frequency", "detector.max_frequency",
		"detector.snr_threshold", "session.workers",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s, got: %v", want, err)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("got %v, want os.ErrNotExist", err)
	}
}

func TestLoad_File(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "notelisten.yaml")
	if err := os.WriteFile(path, []byte("audio:\n  block_size: 2048\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Audio.BlockSize != 2048 {
		t.Errorf("block size: %d", cfg.Audio.BlockSize)
	}
}

func TestLogLevel_IsValid(t *testing.T) {
	t.Parallel()
	for _, l := range []config.LogLevel{config.LogDebug, config.LogInfo, config.LogWarn, config.LogError} {
		if !l.IsValid() {
			t.Errorf("%q should be valid", l)
		}
	}
	if config.LogLevel("verbose").IsValid() {
		t.Error(`"verbose" should be invalid`)
	}
}

func TestWarnings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*config.Config)
		want   []string
	}{
		{"defaults", func(*config.Config) {}, nil},
		{"above nyquist", func(c *config.Config) { c.Audio.SampleRate = 8000 }, []string{"Nyquist"}},
		{"coarse bins", func(c *config.Config) { c.Audio.BlockSize = 256 }, []string{"wider than detector.min_frequency"}},
		{"both", func(c *config.Config) {
			c.Audio.SampleRate = 8000
			c.Audio.BlockSize = 64
		}, []string{"Nyquist", "wider than detector.min_frequency"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.modify(cfg)
			if err := config.Validate(cfg); err != nil {
				t.Fatalf("Validate: %v", err)
			}
			got := config.Warnings(cfg)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d warnings %q, want %d", len(got), got, len(tt.want))
			}
			for i, w := range tt.want {
				if !strings.Contains(got[i], w) {
					t.Errorf("warning %d = %q, want it to mention %q", i, got[i], w)
				}
			}
		})
	}
}
