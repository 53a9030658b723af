// Command notelisten listens to an audio input and reports the musical note
// being played.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"

	"github.com/0xlemi/notelisten/internal/audio"
	"github.com/0xlemi/notelisten/internal/config"
	"github.com/0xlemi/notelisten/internal/listen"
	"github.com/0xlemi/notelisten/internal/observe"
	"github.com/0xlemi/notelisten/internal/pitch"
	"github.com/0xlemi/notelisten/internal/ui"
)

// Amplitude of the synthetic tone used by --simulate
const simulateAmplitude = 0.5

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exitCode := 0
	cmd := newRootCommand(&exitCode)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "notelisten: %v\n", err)
		return 1
	}
	return exitCode
}

// listenCmd runs one listening session and returns the process exit code.
func listenCmd(ctx context.Context, cfg *config.Config, opts options) int {
	// The full-screen display owns the terminal; keep logs quiet under it
	// unless something goes wrong.
	level := cfg.LogLevel
	if !opts.plain && level != config.LogDebug {
		level = config.LogError
	}
	logger := newLogger(level)
	slog.SetDefault(logger)
	for _, w := range config.Warnings(cfg) {
		slog.Warn(w)
	}

	pipeline, err := pitch.NewPipeline(cfg.Pitch())
	if err != nil {
		slog.Error("invalid detector settings", "err", err)
		return 1
	}

	capturer, cleanup, err := newCapturer(cfg, opts)
	if err != nil {
		slog.Error("failed to open audio input", "err", err)
		return 1
	}
	defer cleanup()

	sessionOpts := []listen.Option{
		listen.WithWorkers(cfg.Session.Workers),
		listen.WithDuration(cfg.Audio.Duration),
		listen.WithLogger(logger),
	}

	if cfg.Metrics.ListenAddr != "" {
		handler, shutdown, err := observe.InitProvider(observe.ProviderConfig{ServiceVersion: version})
		if err != nil {
			slog.Error("failed to initialise metrics", "err", err)
			return 1
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				slog.Warn("metrics provider shutdown error", "err", err)
			}
		}()

		metricsCtx, cancelMetrics := context.WithCancel(ctx)
		defer cancelMetrics()
		go func() {
			if err := observe.Serve(metricsCtx, cfg.Metrics.ListenAddr, handler); err != nil {
				slog.Error("metrics endpoint failed", "addr", cfg.Metrics.ListenAddr, "err", err)
			}
		}()
		sessionOpts = append(sessionOpts, listen.WithMetrics(observe.DefaultMetrics()))
	}

	if opts.plain {
		return runPlain(ctx, capturer, pipeline, sessionOpts, opts.verbose)
	}
	return runTUI(ctx, capturer, pipeline, sessionOpts, cfg)
}

// newCapturer opens the microphone, or the synthetic tone with --simulate.
func newCapturer(cfg *config.Config, opts options) (audio.Capturer, func(), error) {
	a := cfg.Audio
	if opts.simulate > 0 {
		tone := audio.NewToneCapturer(opts.simulate, simulateAmplitude, a.BlockSize, a.SampleRate, a.Channels)
		tone.SetNoise(opts.simulateNoise)
		tone.SetRealtime(true)
		slog.Info("using synthetic input", "frequency", opts.simulate, "noise", opts.simulateNoise)
		return tone, func() {}, nil
	}

	mic, err := audio.NewPortAudioCapturer(a.BlockSize, a.SampleRate, a.Channels)
	if err != nil {
		return nil, nil, err
	}
	return mic, func() {
		if err := mic.Close(); err != nil {
			slog.Warn("failed to release audio device", "err", err)
		}
	}, nil
}

func runPlain(ctx context.Context, capturer audio.Capturer, pipeline *pitch.Pipeline, sessionOpts []listen.Option, verbose bool) int {
	console := listen.NewConsoleReporter(os.Stdout, verbose)
	session := listen.NewSession(capturer, pipeline, console, sessionOpts...)

	color.New(color.Bold).Println("Listening...")
	summary, err := session.Run(ctx)
	fmt.Println("Done.")
	console.PrintSummary(summary)

	if err != nil {
		slog.Error("listening failed", "err", err)
		return 1
	}
	return 0
}

func runTUI(ctx context.Context, capturer audio.Capturer, pipeline *pitch.Pipeline, sessionOpts []listen.Option, cfg *config.Config) int {
	// Quitting the display ends the session too.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(ui.NewModel(cfg.Audio.Duration), tea.WithAltScreen(), tea.WithContext(ctx))
	reporter := ui.NewReporter(program)
	session := listen.NewSession(capturer, pipeline, reporter, sessionOpts...)

	type outcome struct {
		summary listen.Summary
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		summary, err := session.Run(ctx)
		reporter.Done(summary, err)
		done <- outcome{summary, err}
	}()

	final, err := program.Run()
	cancel()
	result := <-done

	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		slog.Error("display failed", "err", err)
		return 1
	}
	if m, ok := final.(ui.Model); ok && m.Err() != nil {
		result.err = m.Err()
	}

	listen.NewConsoleReporter(os.Stdout, false).PrintSummary(result.summary)
	if result.err != nil {
		fmt.Fprintf(os.Stderr, "notelisten: %v\n", result.err)
		return 1
	}
	return 0
}

// newLogger creates a text slog.Logger on stderr at the configured level.
func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
