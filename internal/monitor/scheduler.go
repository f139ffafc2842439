package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/CosmoTheDev/glwatch/models"
	"github.com/robfig/cron/v3"
)

// Runner is one poll loop as seen by the scheduler.
type Runner interface {
	Kind() models.EventKind
	Tick(ctx context.Context)
}

// Scheduler drives the registered poll loops concurrently at a fixed
// interval via robfig/cron. Each loop is wrapped in SkipIfStillRunning, so
// a slow tick delays only its own loop and a loop never overlaps itself.
// The first tick fires one interval after Start, mirroring a
// sleep-then-poll loop.
type Scheduler struct {
	cron     *cron.Cron
	interval time.Duration
	cancel   context.CancelFunc
}

// NewScheduler creates a Scheduler pacing every loop at interval.
func NewScheduler(interval time.Duration) *Scheduler {
	logger := cronLogger{}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.SkipIfStillRunning(logger)),
		),
		interval: interval,
	}
}

// Start registers the runners and begins polling. The derived context is
// cancelled by Stop, aborting in-flight API calls.
func (s *Scheduler) Start(ctx context.Context, runners ...Runner) {
	ctx, s.cancel = context.WithCancel(ctx)

	for _, r := range runners {
		s.cron.Schedule(fixedDelay{s.interval}, cron.FuncJob(func() { r.Tick(ctx) }))
		slog.Info("poll loop scheduled", "loop", r.Kind(), "interval", s.interval)
	}

	s.cron.Start()
}

// Stop halts scheduling, cancels in-flight ticks, and waits for running
// ticks to return.
func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	if s.cancel != nil {
		s.cancel()
	}
	<-done.Done()
}

// fixedDelay implements cron.Schedule with the exact configured delay.
// cron's own "@every" rounds delays up to whole seconds.
type fixedDelay struct {
	interval time.Duration
}

func (s fixedDelay) Next(t time.Time) time.Time { return t.Add(s.interval) }

// cronLogger routes robfig/cron messages through slog. Skip notices from
// SkipIfStillRunning arrive at info level; they are routine here, so they
// go out as debug.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
