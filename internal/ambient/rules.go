package ambient

import (
	"fmt"
	"strings"
)

// Reason says why an interjection fired.
type Reason string

const (
	ReasonHelpfulInfo Reason = "helpful_info" // can add useful info
	ReasonJoke        Reason = "joke"         // good moment for humor
	ReasonCheckIn     Reason = "check_in"     // checking if user needs anything
	ReasonComment     Reason = "comment"      // natural comment on what's happening
	ReasonQuestion    Reason = "question"     // a question hung in the air
	ReasonAlert       Reason = "alert"        // something important noticed
	ReasonVibe        Reason = "vibe"         // just being present
)

// Topics that suggest the assistant could add something useful.
var helpfulTopics = []string{
	"weather", "time", "reminder", "schedule", "meeting",
	"email", "message", "call", "todo", "task", "deadline",
	"code", "error", "bug", "fix", "help", "how to", "what is",
	"recipe", "directions", "address", "phone number",
}

// Topics worth a casual comment when the user isn't busy.
var funTopics = []string{
	"music", "movie", "game", "food", "drink", "party",
	"weekend", "vacation", "funny", "crazy", "awesome",
	"chill", "relax",
}

// Signs the user is having a rough time.
var stressIndicators = []string{
	"frustrated", "angry", "stressed", "tired", "exhausted",
	"hate", "stupid", "broken", "not working", "ugh", "come on",
}

var questionPrefixes = []string{"what", "how", "why", "where", "when", "who", "can"}

// match is a candidate interjection produced by one rule.
type match struct {
	reason Reason
	boost  float64
	hint   string
}

// triggerRule evaluates one transcript against the scheduler's current
// context. ok is false when the rule doesn't apply.
type triggerRule struct {
	name string
	eval func(s *Scheduler, transcript, lower string) (match, bool)
}

// triggerRules is the ordered decision table for transcript-driven
// interjections. Evaluation is first-match-wins, so precedence is
// positional: a stressed user always gets a check-in before anything
// else, and chatter-grade rules sit at the bottom.
var triggerRules = []triggerRule{
	{
		name: "stress",
		eval: func(s *Scheduler, _ string, _ string) (match, bool) {
			if !s.ctx.UserSeemsStressed {
				return match{}, false
			}
			return match{reason: ReasonCheckIn, boost: 0.5, hint: "user seems stressed"}, true
		},
	},
	{
		name: "helpful-topic",
		eval: func(_ *Scheduler, _ string, lower string) (match, bool) {
			for _, topic := range helpfulTopics {
				if strings.Contains(lower, topic) {
					return match{
						reason: ReasonHelpfulInfo,
						boost:  0.4,
						hint:   fmt.Sprintf("heard mention of %q", topic),
					}, true
				}
			}
			return match{}, false
		},
	},
	{
		name: "question",
		eval: func(s *Scheduler, transcript, lower string) (match, bool) {
			if s.ctx.UserSeemsBusy {
				return match{}, false
			}
			if !strings.Contains(transcript, "?") && !hasAnyPrefix(lower, questionPrefixes) {
				return match{}, false
			}
			return match{
				reason: ReasonQuestion,
				boost:  0.35,
				hint:   "heard a question: " + truncate(transcript, 50),
			}, true
		},
	},
	{
		name: "fun-topic",
		eval: func(s *Scheduler, _ string, lower string) (match, bool) {
			if s.ctx.UserSeemsBusy {
				return match{}, false
			}
			for _, topic := range funTopics {
				if strings.Contains(lower, topic) {
					return match{
						reason: ReasonComment,
						boost:  0.3,
						hint:   fmt.Sprintf("heard mention of %q", topic),
					}, true
				}
			}
			return match{}, false
		},
	},
	{
		name: "vibe",
		eval: func(s *Scheduler, _ string, _ string) (match, bool) {
			if s.ctx.UserSeemsBusy || s.ctx.UserActivity != "chilling" {
				return match{}, false
			}
			if s.rand() >= 0.02*s.friend {
				return match{}, false
			}
			return match{reason: ReasonVibe, boost: 0.1, hint: "just vibing"}, true
		},
	},
}

func hasAnyPrefix(text string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(text, p) {
			return true
		}
	}
	return false
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
