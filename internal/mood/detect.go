package mood

import (
	"strings"

	"github.com/Unity-Lab-AI/cora/internal/domain"
)

// emotionKeywords maps surface cues in outgoing text to a delivery
// emotion. Categories are checked in order and the first hit wins, so
// the more specific cues sit before the catch-alls.
var emotionKeywords = []struct {
	emotion  domain.Emotion
	keywords []string
}{
	{domain.EmotionExcited, []string{"!", "great", "awesome", "excellent", "amazing", "congrats",
		"fantastic", "wonderful", "perfect", "brilliant", "yay", "woohoo"}},
	{domain.EmotionConcerned, []string{"sorry", "unfortunately", "failed", "error", "problem", "issue",
		"wrong", "broken", "warning", "careful", "danger", "bad"}},
	{domain.EmotionSatisfied, []string{"done", "complete", "finished", "success", "nice", "good",
		"accomplished", "achieved", "completed", "saved"}},
	{domain.EmotionUrgent, []string{"remember", "don't forget", "deadline", "overdue", "urgent",
		"immediately", "now", "asap", "critical", "important"}},
	{domain.EmotionQuestioning, []string{"?", "what", "how", "why", "when", "where", "which"}},
	{domain.EmotionWarm, []string{"hello", "hi", "hey", "welcome", "greetings", "morning", "evening"}},
	{domain.EmotionGentle, []string{"goodbye", "bye", "see you", "later", "goodnight", "farewell"}},
	{domain.EmotionAnnoyed, []string{"ugh", "again", "really", "seriously", "whatever", "fine"}},
	{domain.EmotionPlayful, []string{"haha", "lol", "hehe", "joke", "funny", "kidding", "tease"}},
}

// DetectEmotion picks a delivery emotion for text about to be spoken.
// Returns EmotionNeutral when nothing matches.
func DetectEmotion(text string) domain.Emotion {
	if text == "" {
		return domain.EmotionNeutral
	}
	lower := strings.ToLower(text)
	for _, cat := range emotionKeywords {
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				return cat.emotion
			}
		}
	}
	return domain.EmotionNeutral
}

// VoiceParams are rate/pitch adjustments for synthesis engines that
// support them.
type VoiceParams struct {
	Rate  int
	Pitch float64
}

// voiceParams holds per-emotion rate and pitch multipliers.
func voiceMods(emotion domain.Emotion) (rate, pitch float64) {
	switch emotion {
	case domain.EmotionExcited:
		return 1.1, 1.1
	case domain.EmotionConcerned:
		return 0.9, 0.95
	case domain.EmotionUrgent:
		return 1.15, 1.05
	case domain.EmotionQuestioning:
		return 1.0, 1.1
	case domain.EmotionWarm:
		return 0.95, 1.0
	case domain.EmotionGentle:
		return 0.85, 0.95
	case domain.EmotionAnnoyed:
		return 1.05, 0.9
	case domain.EmotionPlayful:
		return 1.1, 1.05
	default:
		return 1.0, 1.0
	}
}

// Voice returns adjusted synthesis parameters for an emotion given base
// rate (words per minute) and pitch.
func Voice(emotion domain.Emotion, baseRate int, basePitch float64) VoiceParams {
	rateMod, pitchMod := voiceMods(emotion)
	return VoiceParams{
		Rate:  int(float64(baseRate) * rateMod),
		Pitch: basePitch * pitchMod,
	}
}

// Instruction returns a natural-language delivery hint for synthesis
// backends that take free-form style prompts.
func Instruction(emotion domain.Emotion) string {
	switch emotion {
	case domain.EmotionExcited:
		return "speak enthusiastically with energy"
	case domain.EmotionConcerned:
		return "speak with concern and care"
	case domain.EmotionSatisfied:
		return "speak with contentment"
	case domain.EmotionUrgent:
		return "speak with urgency and emphasis"
	case domain.EmotionQuestioning:
		return "speak with curiosity, rising intonation"
	case domain.EmotionWarm:
		return "speak warmly and friendly"
	case domain.EmotionGentle:
		return "speak softly and gently"
	case domain.EmotionAnnoyed:
		return "speak with slight exasperation"
	case domain.EmotionPlayful:
		return "speak playfully with humor"
	default:
		return "speak normally"
	}
}
