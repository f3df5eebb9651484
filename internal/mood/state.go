// Package mood tracks the assistant's persistent emotional state. Four
// components drift back toward their resting values over time; discrete
// events push them around. The resulting mood label colors speech
// delivery and interjection tone.
package mood

import (
	"sync"
	"time"
)

const (
	// DefaultDecayRate is the per-second drift toward resting values.
	DefaultDecayRate = 0.01
	// DefaultIntensity scales an event's deltas when the caller has no
	// better estimate of how strongly it should land.
	DefaultIntensity = 0.3

	restingPatience = 0.5 // patience recovers above neutral

	historyCap  = 100
	historyKeep = 50
)

// Label is the coarse mood classification derived from the components.
type Label string

const (
	MoodExcited    Label = "excited"
	MoodHappy      Label = "happy"
	MoodAnnoyed    Label = "annoyed"
	MoodFrustrated Label = "frustrated"
	MoodTired      Label = "tired"
	MoodEngaged    Label = "engaged"
	MoodBored      Label = "bored"
	MoodNeutral    Label = "neutral"
)

// ResponseModifier tunes downstream response generation to the mood.
type ResponseModifier struct {
	Temperature  float64
	Style        string
	Exclamations bool
}

// Snapshot is a point-in-time copy of the component values.
type Snapshot struct {
	Happiness  float64 `json:"happiness"`
	Patience   float64 `json:"patience"`
	Energy     float64 `json:"energy"`
	Engagement float64 `json:"engagement"`
	Mood       Label   `json:"mood"`
}

// HistoryEntry records one applied event and the mood it left behind.
type HistoryEntry struct {
	At    time.Time
	Event EventType
	Mood  Label
}

// Option configures a State.
type Option func(*State)

// WithDecayRate overrides the per-second decay.
func WithDecayRate(rate float64) Option {
	return func(s *State) { s.decayRate = rate }
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *State) { s.now = now }
}

// State holds the mood components behind a mutex. All methods are safe
// for concurrent use.
type State struct {
	mu         sync.Mutex
	happiness  float64
	patience   float64
	energy     float64
	engagement float64
	decayRate  float64
	lastUpdate time.Time
	now        func() time.Time
	history    []HistoryEntry
}

// NewState returns a neutral state with some initial patience.
func NewState(opts ...Option) *State {
	s := &State{
		patience:  restingPatience,
		decayRate: DefaultDecayRate,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastUpdate = s.now()
	return s
}

// decayLocked drifts every component toward its resting value by
// decayRate per elapsed second, never overshooting. Caller holds mu.
func (s *State) decayLocked() {
	now := s.now()
	elapsed := now.Sub(s.lastUpdate).Seconds()
	s.lastUpdate = now
	if elapsed <= 0 {
		return
	}
	amount := s.decayRate * elapsed

	s.happiness = decayTowards(s.happiness, 0, amount)
	s.energy = decayTowards(s.energy, 0, amount)
	s.patience = decayTowards(s.patience, restingPatience, amount)
	s.engagement = decayTowards(s.engagement, 0, amount)
}

func decayTowards(value, target, amount float64) float64 {
	switch {
	case value > target:
		return max(target, value-amount)
	case value < target:
		return min(target, value+amount)
	default:
		return value
	}
}

func clampComponent(v float64) float64 {
	return max(-1, min(1, v))
}

// Apply applies event at DefaultIntensity.
func (s *State) Apply(event EventType) {
	s.ApplyIntensity(event, DefaultIntensity)
}

// ApplyIntensity applies event scaled by intensity. Decay runs first so
// a burst of events doesn't skip the drift in between.
func (s *State) ApplyIntensity(event EventType, intensity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.decayLocked()

	d := event.deltas()
	s.happiness = clampComponent(s.happiness + d.happiness*intensity)
	s.patience = clampComponent(s.patience + d.patience*intensity)
	s.energy = clampComponent(s.energy + d.energy*intensity)
	s.engagement = clampComponent(s.engagement + d.engagement*intensity)

	s.history = append(s.history, HistoryEntry{At: s.now(), Event: event, Mood: s.moodLocked()})
	if len(s.history) > historyCap {
		s.history = append(s.history[:0:0], s.history[len(s.history)-historyKeep:]...)
	}
}

// moodLocked classifies the components. The checks run in a fixed order;
// the first match wins. Caller holds mu.
func (s *State) moodLocked() Label {
	switch {
	case s.happiness > 0.5 && s.energy > 0.3:
		return MoodExcited
	case s.happiness > 0.3:
		return MoodHappy
	case s.happiness < -0.3 && s.patience < 0.2:
		return MoodAnnoyed
	case s.patience < 0:
		return MoodFrustrated
	case s.energy < -0.3:
		return MoodTired
	case s.engagement > 0.5:
		return MoodEngaged
	case s.engagement < -0.3:
		return MoodBored
	default:
		return MoodNeutral
	}
}

// Mood applies pending decay and returns the current label.
func (s *State) Mood() Label {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decayLocked()
	return s.moodLocked()
}

// Modifier returns response-generation tuning for the current mood.
// Every label has an entry; the switch is exhaustive.
func (s *State) Modifier() ResponseModifier {
	switch s.Mood() {
	case MoodExcited:
		return ResponseModifier{Temperature: 0.8, Style: "enthusiastic", Exclamations: true}
	case MoodHappy:
		return ResponseModifier{Temperature: 0.7, Style: "warm"}
	case MoodAnnoyed:
		return ResponseModifier{Temperature: 0.6, Style: "curt"}
	case MoodFrustrated:
		return ResponseModifier{Temperature: 0.5, Style: "blunt"}
	case MoodTired:
		return ResponseModifier{Temperature: 0.6, Style: "brief"}
	case MoodEngaged:
		return ResponseModifier{Temperature: 0.7, Style: "detailed"}
	case MoodBored:
		return ResponseModifier{Temperature: 0.6, Style: "minimal"}
	default:
		return ResponseModifier{Temperature: 0.7, Style: "normal"}
	}
}

// Snapshot applies pending decay and returns a copy of the components.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decayLocked()
	return Snapshot{
		Happiness:  s.happiness,
		Patience:   s.patience,
		Energy:     s.energy,
		Engagement: s.engagement,
		Mood:       s.moodLocked(),
	}
}

// History returns a copy of the recent event log, oldest first.
func (s *State) History() []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]HistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}
