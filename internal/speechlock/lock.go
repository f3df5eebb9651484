// Package speechlock implements the cross-process mutual exclusion that
// keeps independent assistant instances from talking over each other on
// the one physical audio device.
//
// The mechanism is an exclusive OS file lock plus a small JSON sidecar
// recording who holds it and since when. A holder that dies without
// releasing is recovered purely by TTL: once the sidecar entry is older
// than the TTL the lock is treated as abandoned and reclaimed. There is
// no heartbeat and no persisted waiting state — waiting is just the
// caller blocking with a timeout.
package speechlock

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/Unity-Lab-AI/cora/internal/logger"
)

const (
	// EnvMutexDir overrides the directory holding the lock files so
	// unrelated instances can be pointed at the same audio cluster.
	EnvMutexDir = "CORA_MUTEX_DIR"

	lockFileName  = "speech.lock"
	stateFileName = "speech_state.json"

	// DefaultTTL is the age after which a held lock counts as abandoned.
	DefaultTTL = 30 * time.Second
	// DefaultPollInterval is the retry cadence while waiting.
	DefaultPollInterval = 100 * time.Millisecond
)

// State is the sidecar payload. Written on acquire and release; read by
// diagnostics and by waiters checking for staleness.
type State struct {
	Status     string    `json:"status"` // "acquired" or "released"
	Caller     string    `json:"caller"`
	AcquiredAt time.Time `json:"acquired_at"`
	ReleasedAt time.Time `json:"released_at,omitempty"`
}

// Option configures a FileLock.
type Option func(*FileLock)

// WithDir sets the directory for the lock and sidecar files.
func WithDir(dir string) Option {
	return func(l *FileLock) { l.dir = dir }
}

// WithTTL sets the staleness TTL for abandoned-lock recovery.
func WithTTL(d time.Duration) Option {
	return func(l *FileLock) { l.ttl = d }
}

// WithPollInterval sets the acquire retry cadence.
func WithPollInterval(d time.Duration) Option {
	return func(l *FileLock) { l.poll = d }
}

// FileLock is the filesystem-backed Locker implementation.
// Free → Held(caller, since) → Free; nothing else is persisted.
type FileLock struct {
	caller string
	dir    string
	ttl    time.Duration
	poll   time.Duration
	log    *logger.Logger

	mu   sync.Mutex
	fl   *flock.Flock
	held bool
}

// New creates a file lock for the given caller name. The lock directory
// resolves, in order: WithDir, $CORA_MUTEX_DIR, $XDG_RUNTIME_DIR/cora,
// the system temp dir under "cora".
func New(caller string, log *logger.Logger, opts ...Option) (*FileLock, error) {
	l := &FileLock{
		caller: caller,
		ttl:    DefaultTTL,
		poll:   DefaultPollInterval,
		log:    log,
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.dir == "" {
		l.dir = defaultDir()
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, err
	}

	l.fl = flock.New(filepath.Join(l.dir, lockFileName))
	return l, nil
}

func defaultDir() string {
	if dir := os.Getenv(EnvMutexDir); dir != "" {
		return dir
	}
	if runtime := os.Getenv("XDG_RUNTIME_DIR"); runtime != "" {
		return filepath.Join(runtime, "cora")
	}
	return filepath.Join(os.TempDir(), "cora")
}

// Acquire attempts to take the lock, waiting up to timeout. A lock whose
// sidecar entry is older than the TTL is treated as abandoned: the stale
// sidecar is cleared and acquisition keeps retrying (if the holder truly
// died the OS already dropped its file lock, so the next try succeeds).
// Returns false on timeout.
func (l *FileLock) Acquire(ctx context.Context, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)

	for {
		locked, err := l.tryOnce()
		if err != nil {
			l.log.Error("speechlock[%s]: lock error: %v", l.caller, err)
		}
		if locked {
			return true
		}

		if st, ok := l.readState(); ok && st.Status == "acquired" {
			if age := time.Since(st.AcquiredAt); age > l.ttl {
				l.log.Warn("speechlock[%s]: reclaiming stale lock held by %s (age %s > ttl %s)",
					l.caller, st.Caller, age.Round(time.Second), l.ttl)
				os.Remove(l.statePath())
				continue
			}
		}

		if time.Now().After(deadline) {
			l.log.Warn("speechlock[%s]: failed to acquire (timeout %s)", l.caller, timeout)
			return false
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(l.poll):
		}
	}
}

// tryOnce takes the mutex and attempts a single non-blocking lock.
func (l *FileLock) tryOnce() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held {
		return true, nil
	}

	locked, err := l.fl.TryLock()
	if err != nil || !locked {
		return false, err
	}

	l.held = true
	l.writeState(State{Status: "acquired", Caller: l.caller, AcquiredAt: time.Now()})
	return true, nil
}

// Release drops the lock. Idempotent — releasing an unheld lock is a no-op.
func (l *FileLock) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.held {
		return
	}

	l.writeState(State{Status: "released", Caller: l.caller, ReleasedAt: time.Now()})
	if err := l.fl.Unlock(); err != nil {
		l.log.Error("speechlock[%s]: release error: %v", l.caller, err)
	}
	l.held = false
}

// IsLocked reports whether any live holder has the lock. A sidecar entry
// past its TTL doesn't count — it is reclaimable, so callers shouldn't wait
// on it.
func (l *FileLock) IsLocked() bool {
	l.mu.Lock()
	held := l.held
	l.mu.Unlock()
	if held {
		return true
	}

	st, ok := l.readState()
	return ok && st.Status == "acquired" && time.Since(st.AcquiredAt) < l.ttl
}

// WhoHolds returns the caller name of the current live holder, or "".
func (l *FileLock) WhoHolds() string {
	st, ok := l.readState()
	if ok && st.Status == "acquired" && time.Since(st.AcquiredAt) < l.ttl {
		return st.Caller
	}
	return ""
}

// Dir returns the lock directory. Diagnostic.
func (l *FileLock) Dir() string { return l.dir }

func (l *FileLock) statePath() string {
	return filepath.Join(l.dir, stateFileName)
}

// writeState best-effort persists the sidecar. Sidecar failures never
// fail the lock itself — the sidecar exists for diagnostics and staleness
// detection only.
func (l *FileLock) writeState(st State) {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(l.statePath(), data, 0o644); err != nil {
		l.log.Debug("speechlock[%s]: sidecar write failed: %v", l.caller, err)
	}
}

func (l *FileLock) readState() (State, bool) {
	data, err := os.ReadFile(l.statePath())
	if err != nil {
		return State{}, false
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, false
	}
	return st, true
}
