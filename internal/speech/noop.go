// Package speech coordinates everything the assistant says: a priority
// queue drained by a single worker, echo suppression for the microphone
// side, and the gates (presence, cross-process lock) every utterance
// passes before audio plays.
package speech

import (
	"context"

	"github.com/Unity-Lab-AI/cora/internal/domain"
	"github.com/Unity-Lab-AI/cora/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.Synthesizer      = (*NoOpSynthesizer)(nil)
	_ domain.PresenceDetector = (*AlwaysPresent)(nil)
	_ domain.SpeechGate       = (*EchoSuppressor)(nil)
)

// NoOpSynthesizer logs instead of speaking. Used when voice is disabled.
type NoOpSynthesizer struct {
	log *logger.Logger
}

// NewNoOpSynthesizer creates a silent synthesizer.
func NewNoOpSynthesizer(log *logger.Logger) *NoOpSynthesizer {
	return &NoOpSynthesizer{log: log}
}

// SynthesizeAndPlay logs the text and returns immediately.
func (n *NoOpSynthesizer) SynthesizeAndPlay(_ context.Context, text string, emotion domain.Emotion) error {
	n.log.Info("speech no-op [%s]: %s", emotion, text)
	return nil
}

// AlwaysPresent is a presence detector that never says no. Used when no
// camera or activity sensor is wired up.
type AlwaysPresent struct{}

// Present always reports true.
func (AlwaysPresent) Present(_ context.Context) (bool, error) { return true, nil }
