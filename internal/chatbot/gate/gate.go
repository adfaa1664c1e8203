// Package gate short-circuits yes/no answers to an "anything else?" prompt.
package gate

import (
	"math/rand"
	"strings"

	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/compose"
	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/textnorm"
)

// FollowUpPrompt is the reply to an affirmative answer.
const FollowUpPrompt = "Sure — what would you like help with?"

// Intents reported for gated replies.
const (
	IntentClosing  = "closing"
	IntentFollowUp = "followup"
)

var anythingElsePhrases = []string{
	"anything else i can help",
	"anything else i can assist",
	"is there anything else",
	"can i help you with anything else",
}

var closingTokens = set(
	"no", "nope", "nah", "not now", "no thanks", "thanks", "thank you", "thats it",
	"that is it", "nothing", "nothing else", "all good", "all set", "bye", "goodbye",
)

var affirmativeTokens = set("yes", "y", "yeah", "yep", "sure", "ok", "okay", "please", "yes please")

// Decision is a gated reply. A zero Decision means the message goes
// through the normal pipeline.
type Decision struct {
	Reply  string
	Intent string
}

// Gated reports whether d short-circuits the turn.
func (d Decision) Gated() bool {
	return d.Intent != ""
}

// AwaitingClosing reports whether lastAssistant asked if there is
// anything else to help with.
func AwaitingClosing(lastAssistant string) bool {
	t := textnorm.Normalize(lastAssistant)
	for _, p := range anythingElsePhrases {
		if strings.Contains(t, p) {
			return true
		}
	}
	return false
}

// IsClosing reports whether message is exactly a closing token.
func IsClosing(message string) bool {
	_, ok := closingTokens[textnorm.Normalize(message)]
	return ok
}

// IsAffirmative reports whether message is exactly an affirmative token.
func IsAffirmative(message string) bool {
	_, ok := affirmativeTokens[textnorm.Normalize(message)]
	return ok
}

// Evaluate decides whether message answers a pending "anything else?"
// prompt. rng picks the closing reply.
func Evaluate(lastAssistant, message string, rng *rand.Rand) Decision {
	if !AwaitingClosing(lastAssistant) {
		return Decision{}
	}
	switch {
	case IsClosing(message):
		return Decision{Reply: compose.Pick(compose.ClosingPool, rng), Intent: IntentClosing}
	case IsAffirmative(message):
		return Decision{Reply: FollowUpPrompt, Intent: IntentFollowUp}
	default:
		return Decision{}
	}
}

func set(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}
