// Package audio handles playback through the system audio device: WAV
// output from the synthesis backend and short generated chimes used to
// announce unprompted speech.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/Unity-Lab-AI/cora/internal/logger"
)

// Playback parameters. Everything fed to the player must match these.
const (
	SampleRate   = 24000
	ChannelCount = 1
	BitDepth     = 16
)

// Player plays WAV/PCM data via oto. One system audio context per
// process; construct it once in the composition root.
type Player struct {
	ctx    *oto.Context
	log    *logger.Logger
	mu     sync.Mutex
	active *oto.Player // currently playing, nil when idle
}

// NewPlayer initializes the system audio context. Returns an error if
// the audio device is unavailable.
func NewPlayer(log *logger.Logger) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-readyChan

	log.Debug("audio player initialized (rate=%d, channels=%d)", SampleRate, ChannelCount)
	return &Player{ctx: ctx, log: log}, nil
}

// PlayWAV plays WAV audio synchronously. Blocks until playback finishes
// or Stop is called.
func (p *Player) PlayWAV(wavData []byte) error {
	pcm, err := extractPCM(wavData)
	if err != nil {
		return err
	}
	return p.playPCM(pcm)
}

// Chime plays a short two-note tone announcing that the assistant is
// about to speak unprompted. Blocks for the chime's duration (~300ms).
func (p *Player) Chime() error {
	return p.playPCM(chimePCM())
}

func (p *Player) playPCM(pcm []byte) error {
	player := p.ctx.NewPlayer(bytes.NewReader(pcm))

	p.mu.Lock()
	p.active = player
	p.mu.Unlock()

	player.Play()
	p.log.Debug("audio player: playing %d bytes of PCM", len(pcm))

	for player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}

	p.mu.Lock()
	p.active = nil
	p.mu.Unlock()

	return player.Close()
}

// Stop interrupts the currently playing audio, if any. Safe to call
// concurrently and when nothing is playing.
func (p *Player) Stop() {
	p.mu.Lock()
	active := p.active
	p.mu.Unlock()

	if active != nil {
		active.Pause()
		p.log.Debug("audio player: interrupted")
	}
}

// chimePCM synthesizes the announcement tone: two rising sine notes with
// a linear fade to avoid clicks.
func chimePCM() []byte {
	const (
		noteDuration = 150 * time.Millisecond
		volume       = 0.25
	)
	freqs := []float64{660, 880}

	samplesPerNote := int(float64(SampleRate) * noteDuration.Seconds())
	buf := make([]byte, 0, 2*len(freqs)*samplesPerNote)

	for _, freq := range freqs {
		for i := 0; i < samplesPerNote; i++ {
			fade := 1.0 - float64(i)/float64(samplesPerNote)
			sample := volume * fade * math.Sin(2*math.Pi*freq*float64(i)/SampleRate)
			v := int16(sample * math.MaxInt16)
			buf = binary.LittleEndian.AppendUint16(buf, uint16(v))
		}
	}
	return buf
}

// extractPCM strips the WAV/RIFF header and returns raw PCM data.
func extractPCM(wav []byte) ([]byte, error) {
	if len(wav) < 44 {
		return nil, errors.New("wav data too short")
	}

	// Verify RIFF header.
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, errors.New("not a valid WAV file")
	}

	// Walk chunks to find the "data" chunk.
	pos := 12
	for pos < len(wav)-8 {
		chunkID := string(wav[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(wav[pos+4 : pos+8]))

		if chunkID == "data" {
			start := pos + 8
			end := start + chunkSize
			if end > len(wav) {
				end = len(wav)
			}
			return wav[start:end], nil
		}

		pos += 8 + chunkSize
		// Chunks are word-aligned.
		if chunkSize%2 != 0 {
			pos++
		}
	}

	return nil, errors.New("data chunk not found in WAV")
}
