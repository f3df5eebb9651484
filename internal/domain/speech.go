// Package domain holds the shared types, ports, and sentinel errors that
// the speech coordination subsystems communicate through. It has no
// dependencies on the rest of the tree.
package domain

import "time"

// Priority orders speech requests. 1 is the most urgent, 10 the least.
// Requests are dequeued by (priority ascending, enqueue time ascending).
type Priority int

const (
	// PriorityUrgent preempts everything queued (used by SayNow and alerts).
	PriorityUrgent Priority = 1
	// PriorityHigh is for timer/reminder style notifications.
	PriorityHigh Priority = 3
	// PriorityNormal is the default for chat replies and boot narration.
	PriorityNormal Priority = 5
	// PriorityLow is for ambient interjections and idle chatter.
	PriorityLow Priority = 8
)

// Clamp forces p into the valid [1,10] range.
func (p Priority) Clamp() Priority {
	if p < 1 {
		return 1
	}
	if p > 10 {
		return 10
	}
	return p
}

// Emotion tags a speech request so the synthesizer can adjust delivery.
// The zero value is treated as EmotionNeutral.
type Emotion string

const (
	EmotionNeutral     Emotion = "neutral"
	EmotionExcited     Emotion = "excited"
	EmotionConcerned   Emotion = "concerned"
	EmotionSatisfied   Emotion = "satisfied"
	EmotionUrgent      Emotion = "urgent"
	EmotionQuestioning Emotion = "questioning"
	EmotionWarm        Emotion = "warm"
	EmotionGentle      Emotion = "gentle"
	EmotionAnnoyed     Emotion = "annoyed"
	EmotionPlayful     Emotion = "playful"
	EmotionCaring      Emotion = "caring"
	EmotionSarcastic   Emotion = "sarcastic"
)

// SpeechRequest is a queued item waiting to be spoken. Created by any
// producer, consumed and destroyed by the speech worker.
type SpeechRequest struct {
	Text    string
	Emotion Emotion
	// Priority in [1,10], 1 = highest.
	Priority Priority
	// EnqueuedAt breaks ties between equal priorities (FIFO).
	EnqueuedAt time.Time
	// SkipPresenceCheck bypasses the is-user-present gate. Set for
	// urgent alerts that should be spoken even to an empty room.
	SkipPresenceCheck bool
}
