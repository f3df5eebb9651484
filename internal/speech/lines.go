// Package speech — lines.go centralises every spoken string.
// Edit this file to change Cora's personality. Keep lines short and
// direct; the synthesizer handles inflection.
package speech

import (
	"math/rand"

	"github.com/Unity-Lab-AI/cora/internal/ambient"
)

// ── Greeting / Global ────────────────────────────────────────────

func LineWelcome() string {
	return "Hey, I'm here. Just talk whenever."
}

func LineBye() string {
	return "Bye."
}

func LineNothingToRepeat() string {
	return "I haven't said anything yet."
}

// ── Interjections ────────────────────────────────────────────────
// Spoken when the ambient scheduler decides to speak up unprompted.
// Randomized per reason to avoid sounding canned.

var helpfulLines = []string{
	"Want a hand with that?",
	"I can help with that if you want.",
	"I caught that — want me to take care of it?",
	"Say the word and I'll sort that out.",
}

var checkInLines = []string{
	"Hey, you doing okay over there?",
	"That sounded rough. Need anything?",
	"You seem a little stressed. Want to take a breather?",
	"I'm here if you need a hand.",
}

var questionLines = []string{
	"Sounded like a question. Want me to look into it?",
	"I might know that one, if you're asking.",
	"Want an answer to that?",
}

var commentLines = []string{
	"Sounds fun over there.",
	"Nice. I approve.",
	"Good vibes. Carry on.",
}

var vibeLines = []string{
	"Just chilling? Same.",
	"This is nice.",
	"Good energy right now.",
}

var jokeLines = []string{
	"Want to hear something funny?",
	"I've been saving up a terrible joke.",
}

var alertLines = []string{
	"Heads up.",
	"Hey, quick heads up.",
}

// LineInterjection picks a spoken line matching the event's reason.
func LineInterjection(ev ambient.Event) string {
	var pool []string
	switch ev.Reason {
	case ambient.ReasonHelpfulInfo:
		pool = helpfulLines
	case ambient.ReasonCheckIn:
		pool = checkInLines
	case ambient.ReasonQuestion:
		pool = questionLines
	case ambient.ReasonComment:
		pool = commentLines
	case ambient.ReasonVibe:
		pool = vibeLines
	case ambient.ReasonJoke:
		pool = jokeLines
	case ambient.ReasonAlert:
		pool = alertLines
	default:
		pool = commentLines
	}
	return pool[rand.Intn(len(pool))]
}
