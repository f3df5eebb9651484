package speech

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Unity-Lab-AI/cora/internal/audio"
	"github.com/Unity-Lab-AI/cora/internal/domain"
	"github.com/Unity-Lab-AI/cora/internal/logger"
	"github.com/Unity-Lab-AI/cora/internal/mood"
)

// DefaultVoice is the synthesis voice. Full list:
// https://learn.microsoft.com/en-us/azure/ai-services/speech-service/language-support
const DefaultVoice = "en-US-AvaNeural"

// DefaultAudioFormat matches the player's 24kHz/16-bit/mono pipeline.
const DefaultAudioFormat = "riff-24khz-16bit-mono-pcm"

// Env var names for Azure Speech credentials.
const (
	EnvAzureSpeechKey    = "AZURE_SPEECH_KEY"
	EnvAzureSpeechRegion = "AZURE_SPEECH_REGION"
)

// AzureOption configures the Azure synthesizer.
type AzureOption func(*AzureSynthesizer)

// WithVoice sets the synthesis voice.
func WithVoice(voice string) AzureOption {
	return func(c *AzureSynthesizer) { c.voice = voice }
}

// WithHTTPTimeout sets the HTTP client timeout for synthesis requests.
func WithHTTPTimeout(d time.Duration) AzureOption {
	return func(c *AzureSynthesizer) { c.httpClient.Timeout = d }
}

// AzureSynthesizer produces speech via Azure Cognitive Services and
// plays it through the local audio device. The emotion tag is mapped to
// SSML prosody so an urgent alert actually sounds urgent.
type AzureSynthesizer struct {
	subscriptionKey string
	region          string
	voice           string
	format          string
	httpClient      *http.Client
	player          *audio.Player
	log             *logger.Logger
}

// Compile-time interface check.
var _ domain.Synthesizer = (*AzureSynthesizer)(nil)

// NewAzureSynthesizer creates the synthesizer with the given credentials
// and playback device.
func NewAzureSynthesizer(key, region string, player *audio.Player, log *logger.Logger, opts ...AzureOption) *AzureSynthesizer {
	c := &AzureSynthesizer{
		subscriptionKey: key,
		region:          region,
		voice:           DefaultVoice,
		format:          DefaultAudioFormat,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		player: player,
		log:    log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SynthesizeAndPlay converts text to audio and blocks until playback
// finishes.
func (c *AzureSynthesizer) SynthesizeAndPlay(ctx context.Context, text string, emotion domain.Emotion) error {
	wav, err := c.synthesize(ctx, text, emotion)
	if err != nil {
		return err
	}
	return c.player.PlayWAV(wav)
}

// synthesize fetches WAV bytes for the given text and emotion.
func (c *AzureSynthesizer) synthesize(ctx context.Context, text string, emotion domain.Emotion) ([]byte, error) {
	url := fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", c.region)

	ssml := c.buildSSML(text, emotion)
	c.log.Debug("azure tts: synthesizing %d chars (voice=%s, emotion=%s)", len(text), c.voice, emotion)

	req, err := http.NewRequestWithContext(ctx, "POST", url, strings.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Ocp-Apim-Subscription-Key", c.subscriptionKey)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", c.format)
	req.Header.Set("User-Agent", "Cora/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("azure tts error %d: %s", resp.StatusCode, string(body))
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio data: %w", err)
	}

	c.log.Debug("azure tts: got %d bytes of audio", len(audioData))
	return audioData, nil
}

// buildSSML wraps text in SSML with prosody derived from the emotion's
// rate/pitch modifiers.
func (c *AzureSynthesizer) buildSSML(text string, emotion domain.Emotion) string {
	// Rate and pitch are expressed as percent offsets from normal.
	params := mood.Voice(emotion, 100, 1.0)
	rate := params.Rate - 100
	pitch := (params.Pitch - 1.0) * 100

	return fmt.Sprintf(
		`<speak version='1.0' xml:lang='en-US'><voice xml:lang='en-US' name='%s'><prosody rate='%+d%%' pitch='%+.0f%%'>%s</prosody></voice></speak>`,
		c.voice, rate, pitch, html.EscapeString(text),
	)
}
