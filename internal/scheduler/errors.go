package scheduler

import "errors"

// Sentinel errors for scheduler lifecycle.
var (
	// ErrBootstrapExhausted indicates the storage probe failed on
	// every bootstrap attempt. The process should exit non-zero.
	ErrBootstrapExhausted = errors.New("scheduler: bootstrap attempts exhausted")

	// ErrAlreadyStarted indicates Register or Start was called after
	// the scheduler started.
	ErrAlreadyStarted = errors.New("scheduler: already started")

	// ErrInvalidSchedule indicates a job was registered with an
	// unparseable cron expression.
	ErrInvalidSchedule = errors.New("scheduler: invalid cron expression")
)
