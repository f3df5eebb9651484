package speech

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Unity-Lab-AI/cora/internal/domain"
	"github.com/Unity-Lab-AI/cora/internal/logger"
	"github.com/Unity-Lab-AI/cora/internal/presence"
)

func testLogger() *logger.Logger {
	return logger.New(logger.LevelOff, io.Discard)
}

// mockSynth records every utterance and signals on a channel.
type mockSynth struct {
	mu     sync.Mutex
	spoken []domain.SpeechRequest
	err    error
	onCall func()
	signal chan string
}

func newMockSynth() *mockSynth {
	return &mockSynth{signal: make(chan string, 32)}
}

func (m *mockSynth) SynthesizeAndPlay(_ context.Context, text string, emotion domain.Emotion) error {
	m.mu.Lock()
	m.spoken = append(m.spoken, domain.SpeechRequest{Text: text, Emotion: emotion})
	onCall := m.onCall
	err := m.err
	m.mu.Unlock()
	if onCall != nil {
		onCall()
	}
	m.signal <- text
	return err
}

func (m *mockSynth) texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.spoken))
	for i, r := range m.spoken {
		out[i] = r.Text
	}
	return out
}

// waitFor blocks until n utterances completed or the test times out.
func (m *mockSynth) waitFor(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-m.signal:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for utterance %d of %d", i+1, n)
		}
	}
}

// mockLocker tracks acquire/release pairing.
type mockLocker struct {
	mu       sync.Mutex
	held     bool
	refuse   bool
	acquires int
	releases int
}

func (l *mockLocker) Acquire(_ context.Context, _ time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.refuse {
		return false
	}
	l.held = true
	l.acquires++
	return true
}

func (l *mockLocker) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	l.releases++
}

func (l *mockLocker) IsLocked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

func (l *mockLocker) WhoHolds() string { return "other" }

type absentDetector struct{}

func (absentDetector) Present(_ context.Context) (bool, error) { return false, nil }

func TestDrainsByPriorityThenArrival(t *testing.T) {
	synth := newMockSynth()
	m := NewMouth(synth, testLogger())

	// Queue everything before the worker starts so ordering is decided
	// purely by the dequeue policy.
	m.Say("low chatter", domain.EmotionNeutral, domain.PriorityLow)
	m.Say("first normal", domain.EmotionNeutral, domain.PriorityNormal)
	m.Say("second normal", domain.EmotionNeutral, domain.PriorityNormal)
	m.Say("urgent alert", domain.EmotionUrgent, domain.PriorityUrgent)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop()

	synth.waitFor(t, 4)

	want := []string{"urgent alert", "first normal", "second normal", "low chatter"}
	got := synth.texts()
	if len(got) != len(want) {
		t.Fatalf("spoke %d utterances, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("utterance %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSayNowClearsPending(t *testing.T) {
	synth := newMockSynth()
	m := NewMouth(synth, testLogger())

	m.Say("stale one", domain.EmotionNeutral, domain.PriorityNormal)
	m.Say("stale two", domain.EmotionNeutral, domain.PriorityNormal)
	m.SayNow("fire alarm", domain.EmotionUrgent)

	if got := m.PendingCount(); got != 1 {
		t.Fatalf("pending after SayNow = %d, want 1", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop()

	synth.waitFor(t, 1)
	if got := synth.texts(); len(got) != 1 || got[0] != "fire alarm" {
		t.Errorf("spoke %v, want only the urgent utterance", got)
	}
}

func TestLockHeldDuringSynthesis(t *testing.T) {
	synth := newMockSynth()
	lock := &mockLocker{}
	synth.onCall = func() {
		if !lock.IsLocked() {
			t.Error("synthesizer called without the audio lock held")
		}
	}
	m := NewMouth(synth, testLogger(), WithLock(lock))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop()

	m.Say("guarded speech", domain.EmotionNeutral, domain.PriorityNormal)
	synth.waitFor(t, 1)

	lock.mu.Lock()
	defer lock.mu.Unlock()
	if lock.acquires != 1 || lock.releases != 1 {
		t.Errorf("acquire/release = %d/%d, want 1/1", lock.acquires, lock.releases)
	}
}

func TestLockRefusedDropsUtterance(t *testing.T) {
	synth := newMockSynth()
	lock := &mockLocker{refuse: true}
	m := NewMouth(synth, testLogger(), WithLock(lock), WithLockTimeout(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	m.Say("never spoken", domain.EmotionNeutral, domain.PriorityNormal)
	time.Sleep(100 * time.Millisecond)
	m.Stop()

	if got := synth.texts(); len(got) != 0 {
		t.Errorf("spoke %v despite lock refusal", got)
	}
}

func TestPresenceGateSkipsWhenAbsent(t *testing.T) {
	synth := newMockSynth()
	gate := presence.New(absentDetector{}, testLogger())
	m := NewMouth(synth, testLogger(), WithPresenceGate(gate))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	m.Say("nobody listening", domain.EmotionNeutral, domain.PriorityNormal)
	time.Sleep(100 * time.Millisecond)

	if got := synth.texts(); len(got) != 0 {
		t.Errorf("spoke %v with nobody present", got)
	}

	// SayNow bypasses the gate.
	m.SayNow("urgent regardless", domain.EmotionUrgent)
	synth.waitFor(t, 1)
	m.Stop()

	if got := synth.texts(); len(got) != 1 || got[0] != "urgent regardless" {
		t.Errorf("spoke %v, want the bypass utterance only", got)
	}
}

func TestEchoArmedBeforeSynthesis(t *testing.T) {
	synth := newMockSynth()
	echo := NewEchoSuppressor()
	synth.onCall = func() {
		if !echo.IsSpeaking() {
			t.Error("echo suppression not armed when synthesis began")
		}
	}
	m := NewMouth(synth, testLogger(), WithEchoSuppressor(echo))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop()

	m.Say("armed utterance", domain.EmotionNeutral, domain.PriorityNormal)
	synth.waitFor(t, 1)
}

func TestSynthesisErrorDoesNotStopWorker(t *testing.T) {
	synth := newMockSynth()
	synth.err = errors.New("device busy")
	m := NewMouth(synth, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop()

	m.Say("fails", domain.EmotionNeutral, domain.PriorityNormal)
	synth.waitFor(t, 1)

	synth.mu.Lock()
	synth.err = nil
	synth.mu.Unlock()

	m.Say("recovers", domain.EmotionNeutral, domain.PriorityNormal)
	synth.waitFor(t, 1)

	if m.LastSpoken() != "recovers" {
		t.Errorf("LastSpoken = %q, want the successful utterance", m.LastSpoken())
	}
}

func TestSpeakCallbacks(t *testing.T) {
	synth := newMockSynth()
	m := NewMouth(synth, testLogger())

	var mu sync.Mutex
	var events []string
	m.OnSpeakStart = func(text string) {
		mu.Lock()
		events = append(events, "start:"+text)
		mu.Unlock()
	}
	m.OnSpeakEnd = func(text string) {
		mu.Lock()
		events = append(events, "end:"+text)
		mu.Unlock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	m.Say("called back", domain.EmotionNeutral, domain.PriorityNormal)
	synth.waitFor(t, 1)
	m.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 || events[0] != "start:called back" || events[1] != "end:called back" {
		t.Errorf("callback events = %v", events)
	}
}

func TestCleanForSpeech(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain text", "plain text"},
		{"*sighs* fine, I'll do it", "fine, I'll do it"},
		{"this is _really_ important", "this is important"},
		{"*leans in* so _anyway_ hello", "so hello"},
		{"*only an action*", ""},
		{"  spaced   out  ", "spaced out"},
	}
	for _, tc := range cases {
		if got := CleanForSpeech(tc.in); got != tc.want {
			t.Errorf("CleanForSpeech(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPriorityClamp(t *testing.T) {
	if got := domain.Priority(0).Clamp(); got != 1 {
		t.Errorf("Clamp(0) = %d, want 1", got)
	}
	if got := domain.Priority(15).Clamp(); got != 10 {
		t.Errorf("Clamp(15) = %d, want 10", got)
	}
	if got := domain.PriorityNormal.Clamp(); got != domain.PriorityNormal {
		t.Errorf("Clamp(normal) = %d, changed a valid value", got)
	}
}
