package domain

import (
	"context"
	"time"
)

// Synthesizer turns text into audible speech. Implementations wrap an
// external TTS engine; the call blocks for the full playback duration
// and offers no cancellation contract.
type Synthesizer interface {
	// SynthesizeAndPlay speaks text with the given emotion. Blocks
	// until the audio finishes or fails.
	SynthesizeAndPlay(ctx context.Context, text string, emotion Emotion) error
}

// PresenceDetector reports whether a human is around to hear speech.
// Implementations can use camera, input activity, or network presence.
type PresenceDetector interface {
	Present(ctx context.Context) (bool, error)
}

// VisionProbe provides AI-generated one-or-two sentence descriptions of
// what the camera or screen currently shows. Implementations call out
// to an external vision model and may be slow; callers poll them from
// background loops only.
type VisionProbe interface {
	DescribeCamera(ctx context.Context) (string, error)
	DescribeScreen(ctx context.Context) (string, error)
}

// Locker is the mutual-exclusion port guarding the shared audio device.
// The filesystem implementation lives in internal/speechlock; a
// platform-native named mutex can be substituted without touching the
// speech worker.
type Locker interface {
	// Acquire attempts to take the lock, waiting up to timeout.
	// Returns false on timeout — a soft failure, never an error.
	Acquire(ctx context.Context, timeout time.Duration) bool
	// Release is idempotent; releasing an unheld lock is a no-op.
	Release()
	// IsLocked reports whether any live holder has the lock.
	IsLocked() bool
	// WhoHolds returns the holder's caller name, or "" when free.
	WhoHolds() string
}

// SpeechGate decides whether recognized microphone text should be
// treated as genuine user input. The STT pipeline consults it before
// accepting a transcript; the echo suppressor implements it.
type SpeechGate interface {
	ShouldProcess(text string, confidence float64) bool
}
