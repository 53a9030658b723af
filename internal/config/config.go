// Package config provides the configuration schema and loader for notelisten.
package config

import (
	"time"

	"github.com/0xlemi/notelisten/internal/pitch"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	LogLevel LogLevel       `yaml:"log_level"`
	Audio    AudioConfig    `yaml:"audio"`
	Detector DetectorConfig `yaml:"detector"`
	Session  SessionConfig  `yaml:"session"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// AudioConfig describes the capture stream.
type AudioConfig struct {
	// SampleRate in Hz.
	SampleRate int `yaml:"sample_rate"`

	// BlockSize is the number of frames analysed at a time.
	BlockSize int `yaml:"block_size"`

	// Channels requested from the input device. Only the first is analysed.
	Channels int `yaml:"channels"`

	// Duration of the listening session. Zero listens until interrupted.
	Duration time.Duration `yaml:"duration"`
}

// DetectorConfig holds the pitch pipeline thresholds.
type DetectorConfig struct {
	LoudnessThreshold float64 `yaml:"loudness_threshold"`
	MinFrequency      float64 `yaml:"min_frequency"`
	MaxFrequency      float64 `yaml:"max_frequency"`
	SNRThreshold      float64 `yaml:"snr_threshold"`
}

// SessionConfig tunes block processing.
type SessionConfig struct {
	// Workers is the number of blocks analysed concurrently. Results are
	// reported in arrival order regardless.
	Workers int `yaml:"workers"`
}

// MetricsConfig controls the Prometheus scrape endpoint.
type MetricsConfig struct {
	// ListenAddr is the TCP address serving /metrics (e.g. ":9464").
	// Empty disables the endpoint.
	ListenAddr string `yaml:"listen_addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel: LogInfo,
		Audio: AudioConfig{
			SampleRate: pitch.DefaultSampleRate,
			BlockSize:  4096,
			Channels:   1,
			Duration:   15 * time.Second,
		},
		Detector: DetectorConfig{
			LoudnessThreshold: pitch.DefaultLoudnessThreshold,
			MinFrequency:      pitch.DefaultMinFrequency,
			MaxFrequency:      pitch.DefaultMaxFrequency,
			SNRThreshold:      pitch.DefaultSNRThreshold,
		},
		Session: SessionConfig{Workers: 1},
	}
}

// Pitch returns the pipeline settings described by c.
func (c *Config) Pitch() pitch.Config {
	return pitch.Config{
		SampleRate:        c.Audio.SampleRate,
		LoudnessThreshold: c.Detector.LoudnessThreshold,
		MinFrequency:      c.Detector.MinFrequency,
		MaxFrequency:      c.Detector.MaxFrequency,
		SNRThreshold:      c.Detector.SNRThreshold,
	}
}
