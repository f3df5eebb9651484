package speech

import (
	"strings"
	"sync"
	"time"
)

// EchoStatus is a diagnostic snapshot of the suppressor.
type EchoStatus struct {
	Speaking       bool          `json:"is_speaking"`
	TimeRemaining  time.Duration `json:"time_remaining"`
	LastSpoken     string        `json:"last_spoken"`
	HistoryCount   int           `json:"history_count"`
	BlacklistCount int           `json:"blacklist_count"`
}

// EchoOption configures an EchoSuppressor.
type EchoOption func(*EchoSuppressor)

// WithFilterDuration overrides the fallback suppression window.
func WithFilterDuration(d time.Duration) EchoOption {
	return func(e *EchoSuppressor) { e.filterDuration = d }
}

// WithEchoClock injects a time source for tests.
func WithEchoClock(now func() time.Time) EchoOption {
	return func(e *EchoSuppressor) { e.now = now }
}

// WithLearning controls whether MarkAsEcho grows the blacklist.
func WithLearning(enabled bool) EchoOption {
	return func(e *EchoSuppressor) { e.learn = enabled }
}

// EchoSuppressor keeps the assistant's own voice out of its ears. While
// synthesis is playing (plus a grace period) all recognized input is
// discarded; afterwards, transcripts that textually match recently
// spoken utterances are discarded as late echoes.
//
// Matching is normalized substring in both directions, so a transcript
// that is a fragment of something spoken, or contains it, both count as
// echo. That can eat a legitimate short reply that happens to quote the
// assistant; the alternative is the assistant talking to itself.
type EchoSuppressor struct {
	filterDuration time.Duration
	learn          bool
	now            func() time.Time

	mu            sync.Mutex
	speakingUntil time.Time
	lastSpoken    string
	history       []string
	blacklist     []string
}

// NewEchoSuppressor returns a suppressor with default timing.
func NewEchoSuppressor(opts ...EchoOption) *EchoSuppressor {
	e := &EchoSuppressor{
		filterDuration: DefaultFilterDuration,
		learn:          true,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// estimateDuration guesses how long text takes to speak.
func estimateDuration(text string) time.Duration {
	d := time.Duration(float64(len(strings.Fields(text))) * secsPerWord * float64(time.Second))
	if d < minAdaptive {
		d = minAdaptive
	}
	if d > maxAdaptive {
		d = maxAdaptive
	}
	return d
}

// StartSpeaking opens the suppression window for text. A zero duration
// uses an estimate from the word count; an unknown text falls back to
// the configured filter duration. The text is recorded for late-echo
// matching.
func (e *EchoSuppressor) StartSpeaking(text string, duration time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if duration <= 0 {
		if text != "" {
			duration = estimateDuration(text)
		} else {
			duration = e.filterDuration
		}
	}
	e.speakingUntil = e.now().Add(duration + GracePeriod)

	if norm := normalize(text); norm != "" {
		e.lastSpoken = norm
		e.history = append(e.history, norm)
		if len(e.history) > HistorySize {
			e.history = e.history[len(e.history)-HistorySize:]
		}
	}
}

// StopSpeaking closes the window early, e.g. when playback was cut off.
func (e *EchoSuppressor) StopSpeaking() {
	e.mu.Lock()
	e.speakingUntil = time.Time{}
	e.mu.Unlock()
}

// IsSpeaking reports whether the suppression window is open.
func (e *EchoSuppressor) IsSpeaking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now().Before(e.speakingUntil)
}

// TimeUntilClear returns how long until input is accepted again.
func (e *EchoSuppressor) TimeUntilClear() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	remaining := e.speakingUntil.Sub(e.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ShouldProcess decides whether a recognized transcript is genuine user
// input. It rejects anything inside the suppression window, anything
// below the confidence floor, and anything matching recent speech.
func (e *EchoSuppressor) ShouldProcess(text string, confidence float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.now().Before(e.speakingUntil) {
		return false
	}
	if confidence < MinConfidence {
		return false
	}
	return !e.isEchoLocked(text)
}

// isEchoLocked matches text against the last utterance, the history, and
// the blacklist. Caller holds mu.
func (e *EchoSuppressor) isEchoLocked(text string) bool {
	norm := normalize(text)
	if norm == "" {
		return false
	}

	if e.lastSpoken != "" {
		if norm == e.lastSpoken ||
			strings.Contains(e.lastSpoken, norm) ||
			strings.Contains(norm, e.lastSpoken) {
			return true
		}
	}
	for _, spoken := range e.history {
		if norm == spoken || strings.Contains(spoken, norm) {
			return true
		}
	}
	for _, phrase := range e.blacklist {
		if strings.Contains(norm, phrase) {
			return true
		}
	}
	return false
}

// MarkAsEcho records a transcript the caller identified as echo after
// the fact, so the same phrase is rejected next time. No-op when
// learning is disabled.
func (e *EchoSuppressor) MarkAsEcho(text string) {
	if !e.learn {
		return
	}
	norm := normalize(text)
	if norm == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, phrase := range e.blacklist {
		if phrase == norm {
			return
		}
	}
	e.blacklist = append(e.blacklist, norm)
}

// AddBlacklistPhrase registers a phrase to always reject.
func (e *EchoSuppressor) AddBlacklistPhrase(phrase string) {
	norm := normalize(phrase)
	if norm == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, existing := range e.blacklist {
		if existing == norm {
			return
		}
	}
	e.blacklist = append(e.blacklist, norm)
}

// ClearHistory forgets recent utterances. The blacklist survives.
func (e *EchoSuppressor) ClearHistory() {
	e.mu.Lock()
	e.history = nil
	e.lastSpoken = ""
	e.mu.Unlock()
}

// Status returns a diagnostic snapshot.
func (e *EchoSuppressor) Status() EchoStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	remaining := e.speakingUntil.Sub(e.now())
	if remaining < 0 {
		remaining = 0
	}
	return EchoStatus{
		Speaking:       e.now().Before(e.speakingUntil),
		TimeRemaining:  remaining,
		LastSpoken:     e.lastSpoken,
		HistoryCount:   len(e.history),
		BlacklistCount: len(e.blacklist),
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
