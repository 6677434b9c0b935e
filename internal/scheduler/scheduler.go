package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nerrad567/pointwatch-core/internal/infrastructure/config"
	"github.com/nerrad567/pointwatch-core/internal/infrastructure/logging"
)

// Status is the scheduler lifecycle state, published on the system
// status topic.
type Status string

// Scheduler states.
const (
	// StatusStarting covers bootstrap: probing storage and applying
	// migrations.
	StatusStarting Status = "starting"

	// StatusReady means jobs are registered and dispatching.
	StatusReady Status = "ready"

	// StatusDegraded means the last run of at least one job failed.
	// The scheduler keeps dispatching; the next clean run returns the
	// state to ready.
	StatusDegraded Status = "degraded"

	// StatusStopped means the scheduler has shut down.
	StatusStopped Status = "stopped"
)

// Storage is the persistence surface the scheduler bootstraps against.
type Storage interface {
	// Probe verifies connectivity without side effects.
	Probe(ctx context.Context) error

	// Migrate brings the schema up to date. Idempotent.
	Migrate(ctx context.Context) error
}

// job is one registered recurring job.
type job struct {
	name        string
	description string
	spec        string
	fn          func(ctx context.Context) error

	// running guards against overlapping instances: a tick that
	// arrives while the previous run is in flight is skipped.
	running atomic.Bool
}

// Scheduler owns service bootstrap and recurring job dispatch.
//
// Bootstrap is resilient: the storage probe retries on a configured
// policy before the scheduler gives up, so the service tolerates a
// database that is briefly locked or slow at startup. Jobs only ever
// register before Start and dispatch only after bootstrap completes,
// so no job observes an unmigrated schema.
type Scheduler struct {
	storage Storage
	cfg     config.SchedulerConfig
	logger  *logging.Logger
	cron    *cron.Cron

	mu      sync.Mutex
	jobs    []*job
	started bool
	status  Status

	// baseCtx is the context jobs run under; cancelled on Stop.
	baseCtx    context.Context
	cancelBase context.CancelFunc

	onStatusChange func(Status)
}

// New creates a Scheduler. Jobs must be registered before Start.
func New(storage Storage, cfg config.SchedulerConfig, logger *logging.Logger) *Scheduler {
	return &Scheduler{
		storage: storage,
		cfg:     cfg,
		logger:  logger,
		cron:    cron.New(),
		status:  StatusStarting,
	}
}

// SetOnStatusChange registers a callback invoked on every status
// transition. Must be called before Start.
func (s *Scheduler) SetOnStatusChange(fn func(Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStatusChange = fn
}

// Register adds a recurring job under a standard five-field cron
// expression.
//
// Parameters:
//   - name: Job name for logging
//   - description: Human-readable purpose, logged at registration
//   - spec: Cron expression, e.g. "5 * * * *"
//   - fn: Job body; receives the scheduler's run context
//
// Returns:
//   - error: ErrAlreadyStarted after Start, ErrInvalidSchedule for a
//     bad expression
func (s *Scheduler) Register(name, description, spec string, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("%w: %s %q: %w", ErrInvalidSchedule, name, spec, err)
	}

	s.jobs = append(s.jobs, &job{name: name, description: description, spec: spec, fn: fn})
	return nil
}

// Start bootstraps storage and begins dispatching registered jobs.
//
// Bootstrap sequence:
//  1. Probe storage under the configured retry policy
//  2. Apply pending migrations
//  3. Schedule all registered jobs
//
// Parameters:
//   - ctx: Bootstrap context; cancellation aborts between probe attempts
//
// Returns:
//   - error: ErrBootstrapExhausted if every probe attempt failed,
//     ErrAlreadyStarted on double start, or a migration error
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	s.setStatus(StatusStarting)

	policy := Policy{
		MaxAttempts: s.cfg.BootstrapMaxAttempts,
		Delay:       s.cfg.BootstrapDelay(),
		Backoff:     s.cfg.BootstrapBackoff,
	}
	err := policy.Do(ctx, s.storage.Probe, func(attempt int, err error) {
		s.logger.Warn("storage probe failed",
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"error", err,
		)
	})
	if err != nil {
		if ctx.Err() != nil {
			s.setStatus(StatusStopped)
			return ctx.Err()
		}
		// Terminal: an external observer must not see a forever-starting
		// service after the process has exited.
		s.setStatus(StatusDegraded)
		s.setStatus(StatusStopped)
		return fmt.Errorf("%w: %w", ErrBootstrapExhausted, err)
	}

	if err := s.storage.Migrate(ctx); err != nil {
		s.setStatus(StatusDegraded)
		s.setStatus(StatusStopped)
		return fmt.Errorf("applying migrations: %w", err)
	}

	s.baseCtx, s.cancelBase = context.WithCancel(context.Background())

	s.mu.Lock()
	jobs := s.jobs
	s.mu.Unlock()

	for _, j := range jobs {
		if _, err := s.cron.AddFunc(j.spec, s.wrap(j)); err != nil {
			return fmt.Errorf("%w: %s %q: %w", ErrInvalidSchedule, j.name, j.spec, err)
		}
		s.logger.Info("job scheduled", "job", j.name, "spec", j.spec, "description", j.description)
	}

	s.cron.Start()
	s.setStatus(StatusReady)
	s.logger.Info("scheduler ready", "jobs", len(jobs))
	return nil
}

// Stop halts dispatch and waits for in-flight jobs up to the grace
// period, then returns regardless.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(s.cfg.ShutdownGrace()):
		s.logger.Warn("shutdown grace period expired with jobs in flight")
	}

	if s.cancelBase != nil {
		s.cancelBase()
	}
	s.setStatus(StatusStopped)
	s.logger.Info("scheduler stopped")
}

// Status returns the current lifecycle state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// RunJobNow dispatches one registered job immediately, outside its
// schedule. Used for operator-triggered runs and tests.
//
// Returns:
//   - bool: false if no job with that name exists or it is running
//   - error: The job's error, if it ran
func (s *Scheduler) RunJobNow(name string) (bool, error) {
	s.mu.Lock()
	var target *job
	for _, j := range s.jobs {
		if j.name == name {
			target = j
			break
		}
	}
	ctx := s.baseCtx
	s.mu.Unlock()

	if target == nil || ctx == nil {
		return false, nil
	}
	if !target.running.CompareAndSwap(false, true) {
		return false, nil
	}
	defer target.running.Store(false)

	return true, target.fn(ctx)
}

// wrap builds the cron callback for a job: overlap skip, panic
// recovery, outcome logging, and degraded-state tracking.
func (s *Scheduler) wrap(j *job) func() {
	return func() {
		if !j.running.CompareAndSwap(false, true) {
			s.logger.Warn("job still running, skipping tick", "job", j.name)
			return
		}
		defer j.running.Store(false)

		began := time.Now()
		var err error

		func() {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic: %v", r)
					s.logger.Error("job panicked",
						"job", j.name,
						"panic", fmt.Sprint(r),
						"stack", string(debug.Stack()),
					)
				}
			}()
			err = j.fn(s.baseCtx)
		}()

		duration := time.Since(began)
		if err != nil {
			s.logger.Error("job failed", "job", j.name, "duration", duration.String(), "error", err)
			s.setStatus(StatusDegraded)
			return
		}

		s.logger.Info("job complete", "job", j.name, "duration", duration.String())
		if s.Status() == StatusDegraded {
			s.setStatus(StatusReady)
		}
	}
}

// setStatus transitions the lifecycle state and fires the callback.
func (s *Scheduler) setStatus(status Status) {
	s.mu.Lock()
	if s.status == status {
		s.mu.Unlock()
		return
	}
	s.status = status
	callback := s.onStatusChange
	s.mu.Unlock()

	if callback != nil {
		callback(status)
	}
}
