package speech

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/Unity-Lab-AI/cora/internal/domain"
	"github.com/Unity-Lab-AI/cora/internal/logger"
	"github.com/Unity-Lab-AI/cora/internal/presence"
)

// MouthOption configures the Mouth.
type MouthOption func(*Mouth)

// WithQueueSize sets the internal notification channel capacity.
func WithQueueSize(n int) MouthOption {
	return func(m *Mouth) {
		m.notify = make(chan struct{}, n)
	}
}

// WithLock installs a cross-process audio lock. Without one, utterances
// play without inter-process coordination.
func WithLock(lock domain.Locker) MouthOption {
	return func(m *Mouth) { m.lock = lock }
}

// WithLockTimeout bounds the per-utterance wait for the audio lock.
func WithLockTimeout(d time.Duration) MouthOption {
	return func(m *Mouth) { m.lockTimeout = d }
}

// WithPresenceGate makes the mouth skip utterances while nobody is
// around. Requests with SkipPresenceCheck set bypass the gate.
func WithPresenceGate(gate *presence.Gate) MouthOption {
	return func(m *Mouth) { m.presence = gate }
}

// WithEchoSuppressor arms the suppressor before each utterance so the
// microphone pipeline can discard the resulting echo.
func WithEchoSuppressor(echo *EchoSuppressor) MouthOption {
	return func(m *Mouth) { m.echo = echo }
}

// Mouth is the central speech dispatcher. All output flows through one
// queue drained by a single worker, so only one thing is ever spoken at
// a time and the most urgent pending item always goes first. Priority 1
// is the most urgent, 10 the least; ties play in arrival order.
type Mouth struct {
	synth domain.Synthesizer
	log   *logger.Logger

	lock        domain.Locker
	lockTimeout time.Duration
	presence    *presence.Gate
	echo        *EchoSuppressor

	// OnSpeakStart and OnSpeakEnd fire around each utterance on the
	// worker goroutine. Set them before Start.
	OnSpeakStart func(text string)
	OnSpeakEnd   func(text string)

	mu         sync.Mutex
	queue      []domain.SpeechRequest
	notify     chan struct{}
	speaking   bool
	running    bool
	lastSpoken string
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewMouth creates a speech dispatcher around a synthesizer.
func NewMouth(synth domain.Synthesizer, log *logger.Logger, opts ...MouthOption) *Mouth {
	m := &Mouth{
		synth:       synth,
		log:         log,
		notify:      make(chan struct{}, 32),
		lockTimeout: DefaultLockTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Say queues text at the given priority. Non-blocking.
func (m *Mouth) Say(text string, emotion domain.Emotion, priority domain.Priority) {
	m.enqueue(domain.SpeechRequest{
		Text:       text,
		Emotion:    emotion,
		Priority:   priority.Clamp(),
		EnqueuedAt: time.Now(),
	})
}

// SayNow drops everything pending and queues text at the most urgent
// priority. The utterance currently playing is not cut off — the queue
// jump takes effect at the next dequeue.
func (m *Mouth) SayNow(text string, emotion domain.Emotion) {
	m.mu.Lock()
	dropped := len(m.queue)
	m.queue = m.queue[:0]
	m.mu.Unlock()
	if dropped > 0 {
		m.log.Debug("mouth: cleared %d pending for urgent speech", dropped)
	}

	m.enqueue(domain.SpeechRequest{
		Text:              text,
		Emotion:           emotion,
		Priority:          domain.PriorityUrgent,
		EnqueuedAt:        time.Now(),
		SkipPresenceCheck: true,
	})
}

func (m *Mouth) enqueue(req domain.SpeechRequest) {
	m.mu.Lock()
	m.queue = append(m.queue, req)
	qLen := len(m.queue)
	m.mu.Unlock()

	m.log.Debug("mouth: queued (priority=%d, queue_len=%d): %s", req.Priority, qLen, truncate(req.Text, 60))

	// Signal the worker.
	select {
	case m.notify <- struct{}{}:
	default: // already signaled
	}
}

// Clear drops all pending requests without touching current playback.
func (m *Mouth) Clear() {
	m.mu.Lock()
	dropped := len(m.queue)
	m.queue = m.queue[:0]
	m.mu.Unlock()
	if dropped > 0 {
		m.log.Debug("mouth: cleared %d pending items", dropped)
	}
}

// PendingCount returns the number of queued requests.
func (m *Mouth) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// IsSpeaking reports whether an utterance is being synthesized or played.
func (m *Mouth) IsSpeaking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speaking
}

// LastSpoken returns the most recently completed utterance.
func (m *Mouth) LastSpoken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSpoken
}

// Start launches the worker goroutine. Idempotent while running.
func (m *Mouth) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	go m.processLoop(ctx)
	m.log.Info("mouth started")
}

// Stop halts the worker after the current utterance finishes.
func (m *Mouth) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	cancel()
	<-done
}

// processLoop waits for queued items and drains them one at a time.
func (m *Mouth) processLoop(ctx context.Context) {
	defer close(m.done)
	ticker := time.NewTicker(idlePoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Info("mouth stopped")
			return
		case <-m.notify:
			m.drain(ctx)
		case <-ticker.C:
			m.drain(ctx)
		}
	}
}

// drain processes queued items until the queue is empty.
func (m *Mouth) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		req, ok := m.dequeue()
		if !ok {
			return
		}

		m.mu.Lock()
		m.speaking = true
		m.mu.Unlock()

		m.process(ctx, req)

		m.mu.Lock()
		m.speaking = false
		m.mu.Unlock()
	}
}

// dequeue removes the most urgent request, FIFO within a priority level.
func (m *Mouth) dequeue() (domain.SpeechRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.queue) == 0 {
		return domain.SpeechRequest{}, false
	}

	bestIdx := 0
	for i, req := range m.queue {
		if req.Priority < m.queue[bestIdx].Priority {
			bestIdx = i
		}
	}

	req := m.queue[bestIdx]
	m.queue = append(m.queue[:bestIdx], m.queue[bestIdx+1:]...)
	return req, true
}

// process runs one utterance through the full gate sequence: presence,
// cross-process lock, echo arming, synthesis.
func (m *Mouth) process(ctx context.Context, req domain.SpeechRequest) {
	text := CleanForSpeech(req.Text)
	if text == "" {
		return
	}

	if m.presence != nil && !req.SkipPresenceCheck && !m.presence.Present(ctx) {
		m.log.Debug("mouth: user not present, skipping: %s", truncate(text, 30))
		return
	}

	if m.lock != nil {
		if !m.lock.Acquire(ctx, m.lockTimeout) {
			m.log.Warn("mouth: audio lock busy (held by %s), dropping: %s",
				m.lock.WhoHolds(), truncate(text, 30))
			return
		}
		defer m.lock.Release()
	}

	waited := time.Since(req.EnqueuedAt).Round(time.Millisecond)
	m.log.Debug("mouth: speaking (priority=%d, emotion=%s, waited=%s): %s",
		req.Priority, req.Emotion, waited, truncate(text, 60))

	if m.OnSpeakStart != nil {
		m.OnSpeakStart(text)
	}
	// Arm echo suppression before any audio can reach the speakers.
	if m.echo != nil {
		m.echo.StartSpeaking(text, 0)
	}

	if err := m.synth.SynthesizeAndPlay(ctx, text, req.Emotion); err != nil {
		m.log.Error("mouth: synthesis failed: %v", err)
	} else {
		m.mu.Lock()
		m.lastSpoken = text
		m.mu.Unlock()
	}

	if m.OnSpeakEnd != nil {
		m.OnSpeakEnd(text)
	}
}

var (
	actionMarkers = regexp.MustCompile(`\*[^*]+\*`)
	italicMarkers = regexp.MustCompile(`_[^_]+_`)
	extraSpaces   = regexp.MustCompile(`\s+`)
)

// CleanForSpeech strips stage directions like *sighs* and _emphasis_
// markers that read fine but sound wrong when synthesized, then
// collapses the leftover whitespace.
func CleanForSpeech(text string) string {
	text = actionMarkers.ReplaceAllString(text, "")
	text = italicMarkers.ReplaceAllString(text, "")
	return strings.TrimSpace(extraSpaces.ReplaceAllString(text, " "))
}

// truncate shortens a string for logging.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
