package ambient

import (
	"strings"
	"time"
)

// maxRecentTranscripts bounds the rolling transcript window.
const maxRecentTranscripts = 10

// SensorContext fuses what the scheduler currently believes about the
// user, built up from transcripts and periodic vision probes. It lives
// for one scheduler run and resets on restart.
type SensorContext struct {
	RecentTranscripts []string
	Sentiment         string // positive, stressed, neutral
	SilenceDuration   time.Duration

	UserActivity   string // working, talking, relaxing, chilling, away, unknown
	UserExpression string // happy, focused, stressed, neutral
	Environment    string
	ScreenActivity string

	UserSeemsBusy     bool
	UserSeemsStressed bool

	LastInteraction time.Time
}

func newSensorContext() SensorContext {
	return SensorContext{
		Sentiment:      "neutral",
		UserActivity:   "unknown",
		UserExpression: "neutral",
	}
}

// positiveWords lifts sentiment when stress indicators are absent.
var positiveWords = []string{"happy", "great", "awesome", "nice", "good", "love"}

// addTranscript folds a new transcript into the context: bounded history,
// silence reset, keyword sentiment.
func (c *SensorContext) addTranscript(transcript string, now time.Time) {
	c.RecentTranscripts = append(c.RecentTranscripts, transcript)
	if len(c.RecentTranscripts) > maxRecentTranscripts {
		c.RecentTranscripts = c.RecentTranscripts[len(c.RecentTranscripts)-maxRecentTranscripts:]
	}
	c.SilenceDuration = 0
	c.LastInteraction = now

	lower := strings.ToLower(transcript)
	switch {
	case containsAny(lower, stressIndicators):
		c.Sentiment = "stressed"
		c.UserSeemsStressed = true
	case containsAny(lower, positiveWords):
		c.Sentiment = "positive"
	default:
		c.Sentiment = "neutral"
	}
}

// applyCamera keyword-classifies a camera description into activity and
// expression. The classes are coarse on purpose — the descriptions come
// from an AI-vision summary, not structured data.
func (c *SensorContext) applyCamera(analysis string) {
	if analysis == "" {
		return
	}
	lower := strings.ToLower(analysis)

	switch {
	case containsAny(lower, []string{"typing", "keyboard", "working", "computer"}):
		c.UserActivity = "working"
		c.UserSeemsBusy = true
	case containsAny(lower, []string{"phone", "talking", "speaking"}):
		c.UserActivity = "talking"
	case containsAny(lower, []string{"relaxing", "sitting", "couch", "leaning back"}):
		c.UserActivity = "relaxing"
		c.UserSeemsBusy = false
	case containsAny(lower, []string{"smoking", "blunt", "joint", "vape"}):
		c.UserActivity = "chilling"
		c.UserSeemsBusy = false
	case containsAny(lower, []string{"not visible", "empty", "no one"}):
		c.UserActivity = "away"
	}

	switch {
	case containsAny(lower, []string{"smiling", "happy", "laughing"}):
		c.UserExpression = "happy"
	case containsAny(lower, []string{"focused", "concentrating", "serious"}):
		c.UserExpression = "focused"
		c.UserSeemsBusy = true
	case containsAny(lower, []string{"stressed", "frustrated", "frowning", "tired"}):
		c.UserExpression = "stressed"
		c.UserSeemsStressed = true
	}

	c.Environment = analysis
}

func (c *SensorContext) applyScreen(analysis string) {
	if analysis != "" {
		c.ScreenActivity = analysis
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
