package domain

import "errors"

// Sentinel errors used across layers.
var (
	// ErrLockTimeout — the speech lock could not be acquired in time.
	// Soft failure: the request is dropped, never retried.
	ErrLockTimeout = errors.New("speech lock timeout")
	// ErrNotPresent — the user is away; non-urgent speech is skipped.
	ErrNotPresent = errors.New("user not present")
	// ErrNotRunning — the service hasn't been started.
	ErrNotRunning = errors.New("not running")
	// ErrAlreadyRunning — Start called on a running service.
	ErrAlreadyRunning = errors.New("already running")
	// ErrNotImplemented — the port has no real backing implementation.
	ErrNotImplemented = errors.New("not implemented")
)
