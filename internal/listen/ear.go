// Package listen provides always-on passive speech input using a local
// Whisper model. There is no wake word: every chunk of microphone audio
// is transcribed, scrubbed of Whisper artifacts, run through the echo
// gate, and — if it survives — handed to subscribers as genuine user
// speech.
package listen

import (
	"context"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	audiotranscriber "github.com/sklyt/whisper/pkg"

	"github.com/Unity-Lab-AI/cora/internal/domain"
	"github.com/Unity-Lab-AI/cora/internal/logger"
)

// Whisper's CLI reports no per-utterance confidence, so gated checks
// run with full confidence and rely on text matching alone.
const whisperConfidence = 1.0

// annotation matches Whisper environmental annotations like
// "(keyboard clicking)", "[BLANK_AUDIO]", "[laughter]".
var annotation = regexp.MustCompile(`[\(\[][a-zA-Z][a-zA-Z_\s]*[\)\]]`)

// hallucinations are full transcripts Whisper produces from silence.
var hallucinations = []string{
	"...",
	"you",
	"thank you.",
	"thanks for watching!",
	"thank you for watching.",
	"bye.",
	"bye!",
	"the end.",
}

// Option configures the Ear.
type Option func(*Ear)

// WithChunkDuration sets how long each recorded clip lasts.
func WithChunkDuration(d time.Duration) Option {
	return func(e *Ear) { e.chunkDuration = d }
}

// WithTempDir sets the directory for temporary WAV files.
func WithTempDir(dir string) Option {
	return func(e *Ear) { e.tempDir = dir }
}

// WithBusyCheck installs a probe consulted before each recording; while
// it returns true the microphone stays off. Wire it to the speech
// queue's IsSpeaking so the ear never records over playback.
func WithBusyCheck(busy func() bool) Option {
	return func(e *Ear) { e.busy = busy }
}

// Ear is the passive transcript feed. Run it in a goroutine; consume
// genuine transcripts from C or register callbacks with OnTranscript.
type Ear struct {
	whisperBin    string
	modelPath     string
	tempDir       string
	chunkDuration time.Duration
	log           *logger.Logger
	gate          domain.SpeechGate
	busy          func() bool

	mu     sync.Mutex
	muted  bool
	subs   []func(string)
	textCh chan string
}

// NewEar creates the passive listener.
//
//   - whisperBin: path to the whisper-cli executable
//   - modelPath:  path to the GGML model file
//   - gate:       echo gate consulted for every transcript (may be nil)
func NewEar(whisperBin, modelPath string, gate domain.SpeechGate, log *logger.Logger, opts ...Option) *Ear {
	e := &Ear{
		whisperBin:    whisperBin,
		modelPath:     modelPath,
		tempDir:       ".cora-stt",
		chunkDuration: 3 * time.Second,
		log:           log,
		gate:          gate,
		textCh:        make(chan string, 8),
	}
	for _, opt := range opts {
		opt(e)
	}

	if _, err := exec.LookPath(e.whisperBin); err != nil {
		log.Error("ear: whisper binary %q not found in PATH: %v", e.whisperBin, err)
	}
	return e
}

// C returns the channel receiving genuine (non-echo) transcripts.
func (e *Ear) C() <-chan string {
	return e.textCh
}

// OnTranscript registers a callback invoked for every genuine
// transcript, on the ear's goroutine. Register before Run.
func (e *Ear) OnTranscript(fn func(text string)) {
	e.mu.Lock()
	e.subs = append(e.subs, fn)
	e.mu.Unlock()
}

// Mute temporarily disables listening.
func (e *Ear) Mute() {
	e.mu.Lock()
	e.muted = true
	e.mu.Unlock()
	e.log.Debug("ear: muted")
}

// Unmute re-enables listening.
func (e *Ear) Unmute() {
	e.mu.Lock()
	e.muted = false
	e.mu.Unlock()
	e.log.Debug("ear: unmuted")
}

func (e *Ear) isMuted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

// Run is the capture loop. Blocks until ctx is cancelled; call in a
// goroutine.
func (e *Ear) Run(ctx context.Context) {
	e.log.Info("ear: started (chunk=%s)", e.chunkDuration)

	for {
		select {
		case <-ctx.Done():
			e.log.Info("ear: stopped")
			return
		default:
		}

		if e.isMuted() || (e.busy != nil && e.busy()) {
			time.Sleep(200 * time.Millisecond)
			continue
		}

		text := e.recordChunk(ctx)

		// If playback started while we were recording, the clip is
		// contaminated regardless of what it says.
		if e.busy != nil && e.busy() {
			e.log.Debug("ear: discarding clip, playback started mid-recording")
			continue
		}

		text = cleanTranscription(text)
		if text == "" {
			continue
		}

		if e.gate != nil && !e.gate.ShouldProcess(text, whisperConfidence) {
			e.log.Debug("ear: echo discarded: %q", text)
			continue
		}

		e.log.Debug("ear: heard %q", text)
		e.deliver(ctx, text)
	}
}

func (e *Ear) deliver(ctx context.Context, text string) {
	e.mu.Lock()
	subs := make([]func(string), len(e.subs))
	copy(subs, e.subs)
	e.mu.Unlock()

	for _, fn := range subs {
		fn(text)
	}

	select {
	case e.textCh <- text:
	case <-ctx.Done():
	default:
		// A full channel means nobody is consuming; drop rather than
		// stall the capture loop.
		e.log.Warn("ear: transcript channel full, dropping: %q", text)
	}
}

// recordChunk records one clip and returns the raw transcription.
func (e *Ear) recordChunk(ctx context.Context) string {
	var result string
	var wg sync.WaitGroup
	wg.Add(1)

	callback := func(text string) {
		result = text
		wg.Done()
	}

	verbose := e.log.GetLevel() >= logger.LevelVerbose
	t, err := audiotranscriber.NewTranscriber(
		e.whisperBin,
		e.modelPath,
		e.tempDir,
		"wav",
		callback,
		verbose,
	)
	if err != nil {
		e.log.Error("ear: transcriber init failed: %v", err)
		time.Sleep(2 * time.Second)
		return ""
	}

	if err := t.Start(); err != nil {
		e.log.Error("ear: recording start failed: %v", err)
		time.Sleep(2 * time.Second)
		return ""
	}

	select {
	case <-time.After(e.chunkDuration):
	case <-ctx.Done():
		t.Stop()
		wg.Wait()
		return ""
	}

	t.Stop()
	wg.Wait()

	return result
}

// cleanTranscription normalizes whitespace, strips Whisper's
// environmental annotations and timestamp prefixes, and discards
// known silence hallucinations outright.
func cleanTranscription(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)

	// Timestamp prefix like "[00:00:00.000 --> 00:00:05.000]".
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") && strings.ContainsAny(s, "0123456789") {
		if idx := strings.Index(s, "]"); idx != -1 && idx < 40 {
			s = s[idx+1:]
		}
	}

	s = annotation.ReplaceAllString(s, "")

	s = strings.Join(strings.Fields(s), " ")

	lower := strings.ToLower(s)
	for _, h := range hallucinations {
		if lower == h {
			return ""
		}
	}
	return s
}
