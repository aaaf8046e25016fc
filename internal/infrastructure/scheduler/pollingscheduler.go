package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/entitleops/licensesync/internal/infrastructure/document"
	"github.com/entitleops/licensesync/internal/shared/biztime"
	"github.com/entitleops/licensesync/internal/shared/goroutine"
	"github.com/entitleops/licensesync/internal/shared/id"
	"github.com/entitleops/licensesync/internal/shared/logger"
)

// Polling interval bounds.
const (
	DefaultInterval = 5 * time.Second
	MinInterval     = 1 * time.Second
	MaxInterval     = 60 * time.Second
)

var (
	// ErrTargetNotConfigured is returned by Start before Configure was called.
	ErrTargetNotConfigured = errors.New("polling target is not configured")
	// ErrIntervalOutOfRange is returned for intervals outside 1-60 seconds.
	ErrIntervalOutOfRange = errors.New("polling interval must be between 1 and 60 seconds")
	// ErrSchedulerShutdown is returned by Start once Shutdown has been called.
	ErrSchedulerShutdown = errors.New("polling scheduler has been shut down")
)

// RequestProcessor checks one document for pending work.
type RequestProcessor interface {
	CheckForWork(ctx context.Context, target document.Target) (bool, error)
}

// Stats is a snapshot of the poller.
type Stats struct {
	Running           bool       `json:"running"`
	IntervalSeconds   int        `json:"interval_seconds"`
	DocumentID        string     `json:"document_id"`
	Sheet             string     `json:"sheet"`
	Ticks             uint64     `json:"ticks"`
	SkippedTicks      uint64     `json:"skipped_ticks"`
	RequestsProcessed uint64     `json:"requests_processed"`
	LastError         string     `json:"last_error,omitempty"`
	LastErrorAt       *time.Time `json:"last_error_at,omitempty"`
	LastPollAt        *time.Time `json:"last_poll_at,omitempty"`
}

// PollingScheduler runs the request processor against one document on a
// fixed interval. At most one tick runs at a time; a tick that finds the
// previous one still running is skipped.
type PollingScheduler struct {
	scheduler gocron.Scheduler
	processor RequestProcessor
	logger    logger.Interface

	mu       sync.Mutex
	job      gocron.Job
	started  bool
	shutdown bool
	interval time.Duration
	target   document.Target

	inFlight  atomic.Bool
	ticks     atomic.Uint64
	skipped   atomic.Uint64
	processed atomic.Uint64

	statsMu     sync.RWMutex
	lastError   string
	lastErrorAt *time.Time
	lastPollAt  *time.Time
}

// NewPollingScheduler creates a stopped scheduler. A zero interval selects
// DefaultInterval.
func NewPollingScheduler(processor RequestProcessor, interval time.Duration, log logger.Interface) (*PollingScheduler, error) {
	if interval == 0 {
		interval = DefaultInterval
	}
	if err := validateInterval(interval); err != nil {
		return nil, err
	}

	s, err := gocron.NewScheduler(gocron.WithLocation(biztime.Location()))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &PollingScheduler{
		scheduler: s,
		processor: processor,
		logger:    log,
		interval:  interval,
	}, nil
}

func validateInterval(interval time.Duration) error {
	if interval < MinInterval || interval > MaxInterval {
		return fmt.Errorf("%w: got %s", ErrIntervalOutOfRange, interval)
	}
	return nil
}

// Configure sets the document polled by subsequent ticks.
func (p *PollingScheduler) Configure(target document.Target) error {
	if target.IsZero() {
		return ErrTargetNotConfigured
	}
	p.mu.Lock()
	p.target = target
	p.mu.Unlock()

	p.logger.Infow("polling target configured", "document_id", target.DocumentID, "sheet", target.Sheet)
	return nil
}

// Start schedules the polling job with an immediate first check. Starting a
// running poller is a no-op.
func (p *PollingScheduler) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.shutdown {
		return ErrSchedulerShutdown
	}
	if p.job != nil {
		return nil
	}
	if p.target.IsZero() {
		return ErrTargetNotConfigured
	}

	job, err := p.newJob(p.interval)
	if err != nil {
		return err
	}
	p.job = job

	if !p.started {
		p.scheduler.Start()
		p.started = true
	}

	p.logger.Infow("document poller started",
		"interval", p.interval.String(),
		"document_id", p.target.DocumentID,
		"sheet", p.target.Sheet)
	return nil
}

func (p *PollingScheduler) newJob(interval time.Duration) (gocron.Job, error) {
	job, err := p.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(p.tick),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("poller", "document"),
		gocron.WithName("document-poller"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule polling job: %w", err)
	}
	return job, nil
}

// Stop removes the polling job. A tick already running finishes its request.
func (p *PollingScheduler) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.job == nil {
		return nil
	}
	if err := p.scheduler.RemoveJob(p.job.ID()); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
		return fmt.Errorf("failed to remove polling job: %w", err)
	}
	p.job = nil

	p.logger.Infow("document poller stopped")
	return nil
}

// Reconfigure changes the polling interval, rescheduling a running job.
func (p *PollingScheduler) Reconfigure(interval time.Duration) error {
	if err := validateInterval(interval); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.interval = interval
	if p.job == nil {
		return nil
	}

	if err := p.scheduler.RemoveJob(p.job.ID()); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
		return fmt.Errorf("failed to remove polling job: %w", err)
	}
	p.job = nil

	job, err := p.newJob(interval)
	if err != nil {
		return err
	}
	p.job = job

	p.logger.Infow("polling interval changed", "interval", interval.String())
	return nil
}

// IsRunning reports whether the polling job is scheduled.
func (p *PollingScheduler) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.job != nil
}

// Shutdown stops the scheduler and waits for a running tick. It is final:
// later Start calls fail with ErrSchedulerShutdown.
func (p *PollingScheduler) Shutdown() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.shutdown {
		return nil
	}
	p.job = nil
	p.shutdown = true
	if err := p.scheduler.Shutdown(); err != nil {
		p.logger.Errorw("poller shutdown with error", "error", err)
		return err
	}
	return nil
}

// Stats returns a snapshot of the poller counters.
func (p *PollingScheduler) Stats() Stats {
	p.mu.Lock()
	stats := Stats{
		Running:         p.job != nil,
		IntervalSeconds: int(p.interval / time.Second),
		DocumentID:      p.target.DocumentID,
		Sheet:           p.target.Sheet,
	}
	p.mu.Unlock()

	stats.Ticks = p.ticks.Load()
	stats.SkippedTicks = p.skipped.Load()
	stats.RequestsProcessed = p.processed.Load()

	p.statsMu.RLock()
	defer p.statsMu.RUnlock()
	stats.LastError = p.lastError
	stats.LastErrorAt = p.lastErrorAt
	stats.LastPollAt = p.lastPollAt
	return stats
}

// tick runs one check. It uses a context that Stop does not cancel so a
// picked-up request always reaches a terminal state.
func (p *PollingScheduler) tick() {
	p.ticks.Add(1)
	if !p.inFlight.CompareAndSwap(false, true) {
		p.skipped.Add(1)
		p.logger.Debugw("previous poll still running, tick skipped")
		return
	}
	defer p.inFlight.Store(false)

	p.mu.Lock()
	target := p.target
	p.mu.Unlock()

	log := p.logger.With("poll_id", id.NewPollID())

	var (
		processed bool
		err       error
	)
	if panicErr := goroutine.Run(log, "document-poller", func() {
		processed, err = p.processor.CheckForWork(context.Background(), target)
	}); panicErr != nil {
		err = panicErr
	}

	now := biztime.NowUTC()
	if processed {
		p.processed.Add(1)
	}

	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	if err != nil {
		p.lastError = err.Error()
		p.lastErrorAt = &now
		log.Warnw("poll failed", "document_id", target.DocumentID, "error", err)
		return
	}
	p.lastPollAt = &now
}
