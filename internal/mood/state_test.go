package mood

import (
	"math/rand"
	"testing"
	"time"

	"github.com/Unity-Lab-AI/cora/internal/domain"
)

// fakeClock lets tests advance time manually.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time        { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestState(clk *fakeClock, opts ...Option) *State {
	opts = append([]Option{WithClock(clk.now)}, opts...)
	return NewState(opts...)
}

func TestInitialStateIsNeutral(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	s := newTestState(clk)

	if got := s.Mood(); got != MoodNeutral {
		t.Errorf("initial mood = %s, want neutral", got)
	}
	snap := s.Snapshot()
	if snap.Patience != restingPatience {
		t.Errorf("initial patience = %v, want %v", snap.Patience, restingPatience)
	}
}

func TestComponentsStayClamped(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	s := newTestState(clk)
	rng := rand.New(rand.NewSource(42))

	events := []EventType{
		EventTaskCompleted, EventError, EventUserFrustration, EventCompliment,
		EventInsult, EventBusyPeriod, EventIdlePeriod, EventHelpProvided,
		EventRepetitiveTask, EventGreeting,
	}
	for i := 0; i < 500; i++ {
		s.ApplyIntensity(events[rng.Intn(len(events))], 1.0)
		clk.advance(time.Duration(rng.Intn(3)) * time.Second)
	}

	snap := s.Snapshot()
	for name, v := range map[string]float64{
		"happiness":  snap.Happiness,
		"patience":   snap.Patience,
		"energy":     snap.Energy,
		"engagement": snap.Engagement,
	} {
		if v < -1 || v > 1 {
			t.Errorf("%s = %v, out of [-1, 1]", name, v)
		}
	}
}

func TestDecayReturnsToRestingWithoutOvershoot(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	s := newTestState(clk)

	s.ApplyIntensity(EventCompliment, 1.0) // happiness 0.4
	s.ApplyIntensity(EventInsult, 1.0)     // patience down

	clk.advance(time.Hour) // far longer than needed to decay fully

	snap := s.Snapshot()
	if snap.Happiness != 0 {
		t.Errorf("happiness after full decay = %v, want 0", snap.Happiness)
	}
	if snap.Patience != restingPatience {
		t.Errorf("patience after full decay = %v, want %v", snap.Patience, restingPatience)
	}
	if snap.Energy != 0 || snap.Engagement != 0 {
		t.Errorf("energy/engagement after full decay = %v/%v, want 0/0", snap.Energy, snap.Engagement)
	}
}

func TestDecayIsGradual(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	s := newTestState(clk)

	s.ApplyIntensity(EventCompliment, 1.0) // happiness 0.4
	clk.advance(10 * time.Second)          // decays 0.1

	snap := s.Snapshot()
	want := 0.3
	if diff := snap.Happiness - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("happiness after 10s = %v, want %v", snap.Happiness, want)
	}
}

func TestMoodLabelOrdering(t *testing.T) {
	cases := []struct {
		name                                     string
		happiness, patience, energy, engagement float64
		want                                     Label
	}{
		{"excited beats happy", 0.6, 0.5, 0.4, 0, MoodExcited},
		{"happy without energy", 0.6, 0.5, 0, 0, MoodHappy},
		{"annoyed needs low patience too", -0.4, 0.1, 0, 0, MoodAnnoyed},
		{"unhappy but patient is not annoyed", -0.4, 0.5, 0, 0, MoodNeutral},
		{"frustrated on negative patience", 0, -0.1, 0, 0, MoodFrustrated},
		{"tired", 0, 0.5, -0.4, 0, MoodTired},
		{"engaged", 0, 0.5, 0, 0.6, MoodEngaged},
		{"bored", 0, 0.5, 0, -0.4, MoodBored},
		{"neutral", 0, 0.5, 0, 0, MoodNeutral},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &State{
				happiness:  tc.happiness,
				patience:   tc.patience,
				energy:     tc.energy,
				engagement: tc.engagement,
			}
			if got := s.moodLocked(); got != tc.want {
				t.Errorf("mood = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestModifierMatchesMood(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	s := newTestState(clk)

	// Push into excited territory.
	for i := 0; i < 4; i++ {
		s.ApplyIntensity(EventTaskCompleted, 1.0)
	}
	if got := s.Mood(); got != MoodExcited {
		t.Fatalf("mood = %s, want excited", got)
	}
	mod := s.Modifier()
	if !mod.Exclamations {
		t.Error("excited modifier should allow exclamations")
	}
	if mod.Style != "enthusiastic" {
		t.Errorf("excited style = %q", mod.Style)
	}
}

func TestHistoryBounded(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	s := newTestState(clk)

	for i := 0; i < historyCap+20; i++ {
		s.Apply(EventGreeting)
	}
	if got := len(s.History()); got > historyCap {
		t.Errorf("history length = %d, want <= %d", got, historyCap)
	}
}

func TestEventTypeStrings(t *testing.T) {
	for e := EventTaskCompleted; e <= EventGreeting; e++ {
		if !e.Valid() {
			t.Errorf("%s should be valid", e)
		}
		if e.String() == "" {
			t.Errorf("event %d has empty string", int(e))
		}
	}
	if EventType(99).Valid() {
		t.Error("out-of-range event should be invalid")
	}
}

func TestDetectEmotion(t *testing.T) {
	cases := []struct {
		text string
		want domain.Emotion
	}{
		{"", domain.EmotionNeutral},
		{"That's awesome news", domain.EmotionExcited},
		{"Sorry, the job failed", domain.EmotionConcerned},
		{"Task complete and saved", domain.EmotionSatisfied},
		{"Don't forget the deadline", domain.EmotionUrgent},
		{"Where did you put it", domain.EmotionQuestioning},
		{"hello there", domain.EmotionWarm},
		{"farewell", domain.EmotionGentle},
		{"ugh, not this", domain.EmotionAnnoyed},
		{"lol that was hilarious, kidding", domain.EmotionPlayful},
		{"the report covers q3", domain.EmotionNeutral},
	}
	for _, tc := range cases {
		if got := DetectEmotion(tc.text); got != tc.want {
			t.Errorf("DetectEmotion(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestVoiceParams(t *testing.T) {
	p := Voice(domain.EmotionExcited, 150, 1.0)
	if p.Rate != 165 {
		t.Errorf("excited rate = %d, want 165", p.Rate)
	}
	neutral := Voice(domain.EmotionNeutral, 150, 1.0)
	if neutral.Rate != 150 || neutral.Pitch != 1.0 {
		t.Errorf("neutral params = %+v, want base values", neutral)
	}
}
