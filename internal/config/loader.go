package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of [Default] and
// validates the result. Keys missing from the document keep their defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	// Audio
	if cfg.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d must be positive", cfg.Audio.SampleRate))
	}
	if cfg.Audio.BlockSize <= 0 {
		errs = append(errs, fmt.Errorf("audio.block_size %d must be positive", cfg.Audio.BlockSize))
	}
	if cfg.Audio.Channels < 1 {
		errs = append(errs, fmt.Errorf("audio.channels %d must be at least 1", cfg.Audio.Channels))
	}
	if cfg.Audio.Duration < 0 {
		errs = append(errs, fmt.Errorf("audio.duration %s must not be negative", cfg.Audio.Duration))
	}

	// Detector
	d := cfg.Detector
	if d.LoudnessThreshold < 0 {
		errs = append(errs, fmt.Errorf("detector.loudness_threshold %v must not be negative", d.LoudnessThreshold))
	}
	if d.MinFrequency <= 0 {
		errs = append(errs, fmt.Errorf("detector.min_frequency %v must be positive", d.MinFrequency))
	}
	if d.MaxFrequency < d.MinFrequency {
		errs = append(errs, fmt.Errorf("detector.max_frequency %v is below detector.min_frequency %v", d.MaxFrequency, d.MinFrequency))
	}
	if d.SNRThreshold < 0 {
		errs = append(errs, fmt.Errorf("detector.snr_threshold %v must not be negative", d.SNRThreshold))
	}

	if cfg.Session.Workers < 1 {
		errs = append(errs, fmt.Errorf("session.workers %d must be at least 1", cfg.Session.Workers))
	}

	return errors.Join(errs...)
}

// Warnings lists settings that are valid but cannot work as intended: the
// part of the frequency range above Nyquist is never analysed, and bins wider
// than detector.min_frequency make low notes coarse. It has no side effects;
// callers log the result once their logger is configured.
func Warnings(cfg *Config) []string {
	if cfg.Audio.SampleRate <= 0 || cfg.Audio.BlockSize <= 0 {
		return nil
	}
	var warnings []string
	d := cfg.Detector

	nyquist := float64(cfg.Audio.SampleRate) / 2
	if d.MaxFrequency > nyquist {
		warnings = append(warnings, fmt.Sprintf(
			"detector.max_frequency %v is above the Nyquist frequency %v; the top of the range is never analysed",
			d.MaxFrequency, nyquist))
	}
	if binWidth := float64(cfg.Audio.SampleRate) / float64(cfg.Audio.BlockSize); binWidth > d.MinFrequency {
		warnings = append(warnings, fmt.Sprintf(
			"audio.block_size %d gives %.1f Hz bins, wider than detector.min_frequency %v; low notes will be coarse",
			cfg.Audio.BlockSize, binWidth, d.MinFrequency))
	}
	return warnings
}
