package listen

import (
	"context"
	"io"
	"testing"

	"github.com/Unity-Lab-AI/cora/internal/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.LevelOff, io.Discard)
}

func TestCleanTranscription(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"  plain speech  ", "plain speech"},
		{"line one\nline two", "line one line two"},
		{"[BLANK_AUDIO]", ""},
		{"(keyboard clicking) open the door", "open the door"},
		{"hello there (dog barking)", "hello there"},
		{"[00:00:00.000 --> 00:00:05.000] set a timer", "set a timer"},
		{"Thank you.", ""},
		{"thanks for watching!", ""},
		{"...", ""},
		{"thank you for the help", "thank you for the help"},
	}
	for _, tc := range cases {
		if got := cleanTranscription(tc.in); got != tc.want {
			t.Errorf("cleanTranscription(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDeliverFansOut(t *testing.T) {
	e := NewEar("whisper-cli", "model.bin", nil, testLogger())

	var got []string
	e.OnTranscript(func(text string) { got = append(got, text) })
	e.OnTranscript(func(text string) { got = append(got, "2:"+text) })

	e.deliver(context.Background(), "hello")

	if len(got) != 2 || got[0] != "hello" || got[1] != "2:hello" {
		t.Errorf("callbacks saw %v", got)
	}
	select {
	case text := <-e.C():
		if text != "hello" {
			t.Errorf("channel got %q", text)
		}
	default:
		t.Error("channel empty after deliver")
	}
}

func TestDeliverDropsWhenChannelFull(t *testing.T) {
	e := NewEar("whisper-cli", "model.bin", nil, testLogger())

	// Fill the buffered channel with no consumer.
	for i := 0; i < cap(e.textCh)+3; i++ {
		e.deliver(context.Background(), "chatter")
	}
	if got := len(e.textCh); got != cap(e.textCh) {
		t.Errorf("channel holds %d, want %d", got, cap(e.textCh))
	}
}

func TestMuteState(t *testing.T) {
	e := NewEar("whisper-cli", "model.bin", nil, testLogger())
	if e.isMuted() {
		t.Error("new ear starts muted")
	}
	e.Mute()
	if !e.isMuted() {
		t.Error("Mute had no effect")
	}
	e.Unmute()
	if e.isMuted() {
		t.Error("Unmute had no effect")
	}
}
