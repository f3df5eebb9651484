package speech

import (
	"io"
	"strings"
	"testing"

	"github.com/Unity-Lab-AI/cora/internal/domain"
	"github.com/Unity-Lab-AI/cora/internal/logger"
)

func TestBuildSSMLProsody(t *testing.T) {
	c := NewAzureSynthesizer("key", "eastus", nil, logger.New(logger.LevelOff, io.Discard))

	ssml := c.buildSSML("hello there", domain.EmotionExcited)
	if !strings.Contains(ssml, "rate='+10%'") {
		t.Errorf("excited SSML missing rate bump: %s", ssml)
	}
	if !strings.Contains(ssml, "pitch='+10%'") {
		t.Errorf("excited SSML missing pitch bump: %s", ssml)
	}
	if !strings.Contains(ssml, DefaultVoice) {
		t.Errorf("SSML missing voice name: %s", ssml)
	}

	ssml = c.buildSSML("calm down", domain.EmotionGentle)
	if !strings.Contains(ssml, "rate='-15%'") {
		t.Errorf("gentle SSML should slow down: %s", ssml)
	}
	if !strings.Contains(ssml, "pitch='-5%'") {
		t.Errorf("gentle SSML should drop pitch: %s", ssml)
	}

	ssml = c.buildSSML("plain text", domain.EmotionNeutral)
	if !strings.Contains(ssml, "rate='+0%'") || !strings.Contains(ssml, "pitch='+0%'") {
		t.Errorf("neutral SSML should have zero offsets: %s", ssml)
	}
}

func TestBuildSSMLEscapesText(t *testing.T) {
	c := NewAzureSynthesizer("key", "eastus", nil, logger.New(logger.LevelOff, io.Discard))

	ssml := c.buildSSML("a < b & c", domain.EmotionNeutral)
	if strings.Contains(ssml, "a < b & c") {
		t.Errorf("text not escaped: %s", ssml)
	}
	if !strings.Contains(ssml, "a &lt; b &amp; c") {
		t.Errorf("expected escaped text in SSML: %s", ssml)
	}

	ssml = c.buildSSML("", domain.EmotionNeutral)
	if !strings.Contains(ssml, "<prosody rate='+0%' pitch='+0%'></prosody>") {
		t.Errorf("empty text should produce empty prosody body: %s", ssml)
	}
}

func TestWithVoiceOption(t *testing.T) {
	c := NewAzureSynthesizer("key", "eastus", nil, logger.New(logger.LevelOff, io.Discard),
		WithVoice("en-GB-SoniaNeural"))

	ssml := c.buildSSML("hi", domain.EmotionNeutral)
	if !strings.Contains(ssml, "en-GB-SoniaNeural") {
		t.Errorf("custom voice not used: %s", ssml)
	}
}
