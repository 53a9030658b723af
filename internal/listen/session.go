// Package listen runs a listening session: it pulls blocks from a capturer,
// analyses them with the pitch pipeline and reports every result, in the
// order the blocks arrived.
package listen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/0xlemi/notelisten/internal/audio"
	"github.com/0xlemi/notelisten/internal/observe"
	"github.com/0xlemi/notelisten/internal/pitch"
)

// Result is the analysis of one captured block.
type Result struct {
	pitch.Result

	// Seq is the arrival index of the block, starting at 0.
	Seq int

	// Offset is where the block starts, measured from the session start in
	// stream time.
	Offset time.Duration

	// Err is set when the block broke the pipeline contract (for example an
	// empty block). The session carries on regardless.
	Err error
}

// Reporter receives results. Report is called from a single goroutine, in
// block order.
type Reporter interface {
	Report(Result)
}

// ReporterFunc adapts a function to [Reporter].
type ReporterFunc func(Result)

// Report calls f(r).
func (f ReporterFunc) Report(r Result) { f(r) }

// dropCounter is implemented by capturers that can lose blocks.
type dropCounter interface {
	Dropped() uint64
}

// Summary describes a finished session.
type Summary struct {
	Blocks    int
	Estimates int
	Invalid   int
	Dropped   uint64
	Elapsed   time.Duration
}

// Session ties a capturer, a pipeline and a reporter together.
type Session struct {
	id       string
	capturer audio.Capturer
	pipeline *pitch.Pipeline
	reporter Reporter
	metrics  *observe.Metrics
	workers  int
	duration time.Duration
	logger   *slog.Logger
}

// Option configures a [Session].
type Option func(*Session)

// WithWorkers sets how many blocks may be analysed at once. Values below 1
// are treated as 1.
func WithWorkers(n int) Option {
	return func(s *Session) { s.workers = max(n, 1) }
}

// WithDuration stops the session after d. Zero runs until the context ends
// or the capturer is stopped.
func WithDuration(d time.Duration) Option {
	return func(s *Session) { s.duration = d }
}

// WithMetrics records per-block metrics into m.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// NewSession creates a session. Nothing is captured until [Session.Run].
func NewSession(capturer audio.Capturer, pipeline *pitch.Pipeline, reporter Reporter, opts ...Option) *Session {
	s := &Session{
		id:       uuid.NewString(),
		capturer: capturer,
		pipeline: pipeline,
		reporter: reporter,
		workers:  1,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session_id", s.id)
	return s
}

// ID returns the unique identifier logged with every session message.
func (s *Session) ID() string {
	return s.id
}

// Run captures and analyses blocks until the configured duration elapses,
// ctx is cancelled, or the capturer is stopped. Those are normal ends and
// return a nil error; capture failures are returned.
func (s *Session) Run(ctx context.Context) (Summary, error) {
	if s.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.duration)
		defer cancel()
	}

	if err := s.capturer.Start(); err != nil {
		return Summary{}, fmt.Errorf("start capture: %w", err)
	}
	start := time.Now()
	s.logger.Info("listening", "workers", s.workers, "duration", s.duration)

	var summary Summary

	// Each block gets a one-shot slot; slots are queued in arrival order so
	// the reporter sees results in that order however the workers finish.
	slots := make(chan chan Result, s.workers)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(slots)

		var workers errgroup.Group
		workers.SetLimit(s.workers)
		defer workers.Wait()

		var offset time.Duration
		for seq := 0; ; seq++ {
			buf, err := s.capturer.Read(gctx)
			if err != nil {
				if isEndOfCapture(err) {
					return nil
				}
				return fmt.Errorf("read block %d: %w", seq, err)
			}

			slot := make(chan Result, 1)
			select {
			case slots <- slot:
			case <-gctx.Done():
				return nil
			}

			// A nil block is handed to the pipeline, which reports it as invalid.
			blockOffset := offset
			if buf != nil {
				offset += buf.Duration()
			}
			workers.Go(func() error {
				slot <- s.process(gctx, seq, blockOffset, buf)
				return nil
			})
		}
	})

	g.Go(func() error {
		for slot := range slots {
			res := <-slot
			summary.Blocks++
			switch {
			case res.Err != nil:
				summary.Invalid++
			case res.Estimate != nil:
				summary.Estimates++
			}
			s.reporter.Report(res)
		}
		return nil
	})

	err := g.Wait()

	if stopErr := s.capturer.Stop(); stopErr != nil && !errors.Is(stopErr, audio.ErrNotStarted) {
		s.logger.Warn("stop capture", "err", stopErr)
	}

	if dc, ok := s.capturer.(dropCounter); ok {
		summary.Dropped = dc.Dropped()
		if summary.Dropped > 0 {
			s.logger.Warn("analysis fell behind capture; blocks were dropped", "dropped", summary.Dropped)
			if s.metrics != nil {
				s.metrics.RecordDropped(context.Background(), int64(summary.Dropped))
			}
		}
	}
	summary.Elapsed = time.Since(start)

	s.logger.Info("session finished",
		"blocks", summary.Blocks,
		"estimates", summary.Estimates,
		"invalid", summary.Invalid,
		"elapsed", summary.Elapsed.Round(time.Millisecond),
	)
	return summary, err
}

// process analyses one block and records its metrics.
func (s *Session) process(ctx context.Context, seq int, offset time.Duration, buf *audio.AudioBuffer) Result {
	began := time.Now()
	res, err := s.pipeline.Process(buf)
	took := time.Since(began)

	if err != nil {
		s.logger.Warn("rejected audio block", "seq", seq, "err", err)
	} else {
		s.logger.Debug("block analysed",
			"seq", seq,
			"outcome", res.Outcome.String(),
			"rms", res.Level,
			"took", took,
		)
	}

	if s.metrics != nil {
		s.metrics.RecordBlock(ctx, res.Outcome.String(), took, res.Level)
		if res.Estimate != nil {
			s.metrics.RecordNote(ctx, res.Estimate.Note.String())
		}
	}

	return Result{Result: res, Seq: seq, Offset: offset, Err: err}
}

// isEndOfCapture reports whether err from Read means the session is over
// rather than broken.
func isEndOfCapture(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, audio.ErrClosed) ||
		errors.Is(err, audio.ErrNotStarted)
}
