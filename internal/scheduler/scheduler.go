// Package scheduler runs periodic background jobs such as the article
// cache refresh
package scheduler

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lcrostarosa/nirbhaya/internal/logging"
)

// Schedule is a fixed run interval
type Schedule struct {
	// Expression is the original text
	Expression string
	interval   time.Duration
}

// ParseSchedule parses a schedule expression
// Supports:
// - Simple: "hourly", "daily"
// - Intervals: "every 4h", "every 30m" (at least one minute)
func ParseSchedule(expr string) (*Schedule, error) {
	expr = strings.TrimSpace(strings.ToLower(expr))
	s := &Schedule{Expression: expr}

	switch expr {
	case "hourly":
		s.interval = time.Hour
		return s, nil
	case "daily":
		s.interval = 24 * time.Hour
		return s, nil
	}

	if strings.HasPrefix(expr, "every ") {
		intervalStr := strings.TrimPrefix(expr, "every ")
		dur, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("invalid interval: %s", intervalStr)
		}
		if dur < time.Minute {
			return nil, fmt.Errorf("interval must be at least 1 minute")
		}
		s.interval = dur
		return s, nil
	}

	return nil, fmt.Errorf("unrecognized schedule format: %s", expr)
}

// Interval returns the time between runs
func (s *Schedule) Interval() time.Duration {
	return s.interval
}

// NextRun calculates the next run time after 'after'
func (s *Schedule) NextRun(after time.Time) time.Time {
	return after.Add(s.interval)
}

// RetryStrategy defines the retry behavior for failed runs
type RetryStrategy struct {
	// MaxRetries is the maximum number of retry attempts (0 = no retries)
	MaxRetries int
	// InitialDelay is the delay before the first retry
	InitialDelay time.Duration
	// MaxDelay is the maximum delay between retries
	MaxDelay time.Duration
	// BackoffFactor is the multiplier applied to delay after each attempt
	BackoffFactor float64
}

// DefaultRetryStrategy retries a failed refresh three times over a few
// minutes
func DefaultRetryStrategy() *RetryStrategy {
	return &RetryStrategy{
		MaxRetries:    3,
		InitialDelay:  30 * time.Second,
		MaxDelay:      5 * time.Minute,
		BackoffFactor: 2.0,
	}
}

// NoRetry returns a strategy that never retries
func NoRetry() *RetryStrategy {
	return &RetryStrategy{}
}

// NextDelay calculates the delay before the next retry attempt.
// attempt is 1-indexed (1 = first retry)
func (r *RetryStrategy) NextDelay(attempt int) time.Duration {
	if r == nil || attempt < 1 || attempt > r.MaxRetries {
		return 0
	}
	delay := float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1))
	if time.Duration(delay) > r.MaxDelay {
		return r.MaxDelay
	}
	return time.Duration(delay)
}

// Job is one scheduled unit of work
type Job func(ctx context.Context) error

// Scheduler runs a job on a schedule
type Scheduler struct {
	name     string
	schedule *Schedule
	job      Job
	retry    *RetryStrategy
	logger   *zap.Logger

	stop      chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	running   bool
	lastRun   time.Time
	lastError error
}

// NewScheduler creates a scheduler. The first run happens one interval
// after Start.
func NewScheduler(name string, schedule *Schedule, job Job, retry *RetryStrategy, logger *zap.Logger) *Scheduler {
	if retry == nil {
		retry = NoRetry()
	}
	return &Scheduler{
		name:     name,
		schedule: schedule,
		job:      job,
		retry:    retry,
		logger:   logging.OrNop(logger).With(zap.String("job", name)),
		stop:     make(chan struct{}),
	}
}

// Start begins the scheduler
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run()
}

// Stop stops the scheduler and waits for an in-flight run
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stop)
	s.wg.Wait()
}

// Status returns scheduler status
func (s *Scheduler) Status() (lastRun time.Time, lastError error, nextRun time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lastRun = s.lastRun
	lastError = s.lastError
	if s.running {
		if lastRun.IsZero() {
			nextRun = s.schedule.NextRun(time.Now())
		} else {
			nextRun = s.schedule.NextRun(lastRun)
		}
	}
	return
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-s.stop
		cancel()
	}()

	nextRun := s.schedule.NextRun(time.Now())
	s.logger.Info("Scheduler started", zap.Time("next_run", nextRun))

	for {
		wait := time.Until(nextRun)
		if wait < 0 {
			wait = time.Second
		}

		select {
		case <-s.stop:
			s.logger.Info("Scheduler stopped")
			return
		case <-time.After(wait):
			err := s.runWithRetry(ctx)

			s.mu.Lock()
			s.lastRun = time.Now()
			s.lastError = err
			s.mu.Unlock()

			nextRun = s.schedule.NextRun(time.Now())
			s.logger.Debug("Next run scheduled", zap.Time("next_run", nextRun))
		}
	}
}

func (s *Scheduler) runWithRetry(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		start := time.Now()
		err := s.job(ctx)
		if err == nil {
			s.logger.Debug("Scheduled run completed", zap.Duration("took", time.Since(start)))
			return nil
		}

		delay := s.retry.NextDelay(attempt)
		s.logger.Warn("Scheduled run failed",
			zap.Int("attempt", attempt),
			zap.Bool("will_retry", delay > 0),
			zap.Error(err))
		if delay == 0 {
			return err
		}

		select {
		case <-s.stop:
			return err
		case <-time.After(delay):
		}
	}
}

// FormatDuration formats a duration nicely
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%.1f hours", d.Hours())
	}
	return fmt.Sprintf("%.1f days", d.Hours()/24)
}
