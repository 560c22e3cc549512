// Package scheduler runs periodic background jobs such as the dashboard
// auto-refresh and artifact cleanup.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the dashboard auto-refresh period
const DefaultInterval = 30 * time.Second

var (
	ErrNotRunning       = errors.New("refresher is not running")
	ErrInvalidRefresher = errors.New("invalid refresher configuration")
)

// Job is one unit of periodic work
type Job func(ctx context.Context) error

// RefresherConfig holds configuration for a Refresher
type RefresherConfig struct {
	// Name identifies the refresher in logs
	Name string

	// Interval between runs while active
	Interval time.Duration

	// Timeout bounds a single run; zero means Interval
	Timeout time.Duration

	// StartActive makes the refresher run as soon as it is started
	StartActive bool

	// RunOnActivate triggers an immediate run whenever it becomes active
	RunOnActivate bool
}

// Status is a point-in-time view of a refresher
type Status struct {
	Running   bool
	Active    bool
	InFlight  bool
	Runs      int64
	Failures  int64
	LastRun   time.Time
	LastError string
}

// Refresher runs a job every interval, but only while active. Runs happen on
// a single goroutine so they never overlap; ticks that arrive during a run
// are dropped.
type Refresher struct {
	config RefresherConfig
	job    Job
	logger *zap.Logger

	trigger chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu        sync.Mutex
	isRunning bool
	active    bool
	status    Status
}

// NewRefresher creates a refresher; it does nothing until Start
func NewRefresher(config RefresherConfig, job Job, logger *zap.Logger) (*Refresher, error) {
	if job == nil {
		return nil, fmt.Errorf("%w: job is required", ErrInvalidRefresher)
	}
	if config.Interval < 0 {
		return nil, fmt.Errorf("%w: negative interval", ErrInvalidRefresher)
	}
	if config.Interval == 0 {
		config.Interval = DefaultInterval
	}
	if config.Timeout <= 0 {
		config.Timeout = config.Interval
	}
	if config.Name == "" {
		config.Name = "refresher"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		config:  config,
		job:     job,
		logger:  logger.With(zap.String("scheduler", config.Name)),
		trigger: make(chan struct{}, 1),
		active:  config.StartActive,
	}, nil
}

// Start launches the refresh loop. The loop ends on Stop or when ctx is done.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = true
	active := r.active
	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	r.mu.Unlock()

	go r.loop(ctx)

	if active && r.config.RunOnActivate {
		r.Trigger()
	}

	r.logger.Info("Refresher started",
		zap.Duration("interval", r.config.Interval),
		zap.Bool("active", active),
	)
	return nil
}

// Stop ends the loop and waits for an in-flight run, bounded by ctx
func (r *Refresher) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = false
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("Refresher stopped gracefully")
		return nil
	case <-ctx.Done():
		r.logger.Warn("Refresher stop timed out")
		return ctx.Err()
	}
}

// Activate resumes periodic runs
func (r *Refresher) Activate() {
	r.mu.Lock()
	wasActive := r.active
	r.active = true
	running := r.isRunning
	r.mu.Unlock()

	if !wasActive {
		r.logger.Debug("Refresher activated")
		if running && r.config.RunOnActivate {
			r.Trigger()
		}
	}
}

// Deactivate pauses periodic runs; an in-flight run completes
func (r *Refresher) Deactivate() {
	r.mu.Lock()
	wasActive := r.active
	r.active = false
	r.mu.Unlock()

	if wasActive {
		r.logger.Debug("Refresher deactivated")
	}
}

// IsActive reports whether periodic runs are enabled
func (r *Refresher) IsActive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// IsRunning reports whether the loop has been started and not stopped
func (r *Refresher) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isRunning
}

// Trigger asks for a run as soon as the loop is free. Requests made while a
// run is pending collapse into one.
func (r *Refresher) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// TriggerNow is Trigger for callers that need to know the loop is up
func (r *Refresher) TriggerNow() error {
	if !r.IsRunning() {
		return ErrNotRunning
	}
	r.Trigger()
	return nil
}

// Status returns a copy of the refresher status
func (r *Refresher) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.status
	s.Running = r.isRunning
	s.Active = r.active
	return s
}

func (r *Refresher) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("Refresh loop stopping")
			return
		case <-ticker.C:
			if r.IsActive() {
				r.run(ctx)
			}
		case <-r.trigger:
			r.run(ctx)
		}
	}
}

func (r *Refresher) run(ctx context.Context) {
	r.mu.Lock()
	r.status.InFlight = true
	r.mu.Unlock()

	runCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	start := time.Now()
	err := r.job(runCtx)
	duration := time.Since(start)

	r.mu.Lock()
	r.status.InFlight = false
	r.status.Runs++
	r.status.LastRun = start
	if err != nil {
		r.status.Failures++
		r.status.LastError = err.Error()
	} else {
		r.status.LastError = ""
	}
	r.mu.Unlock()

	if err != nil {
		r.logger.Error("Refresh failed", zap.Duration("duration", duration), zap.Error(err))
		return
	}
	r.logger.Debug("Refresh completed", zap.Duration("duration", duration))
}
