package compose

import (
	"strings"

	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/intent"
	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/types"
)

const (
	examFollowUp         = "\n\nWould you like to know more about exam schedules or results?"
	subjectFollowUp      = "\n\nIs there anything specific you'd like to know about this subject?"
	rephraseFollowUp     = "\n\nIs this what you were looking for? If not, please try rephrasing your question or asking about a specific topic."
	anythingElseFollowUp = "\n\nIs there anything else I can help you with?"
)

const (
	bandedFollowUpScore = 30.0
	lowConfidenceScore  = 50.0
	highConfidenceScore = 70.0

	contextTurns = 3
)

// Compose turns a matched entry into a reply. history is the conversation
// so far, including the current user turn.
func Compose(message string, entry *types.KnowledgeEntry, history []types.Turn, score float64) string {
	reply := entry.Answer
	lower := strings.ToLower(message)

	if strings.Contains(recentUserContext(history), "my") || strings.Contains(lower, "my") {
		reply = strings.Replace(reply, "the Students page", "your profile on the Students page", 1)
	}

	if strings.Contains(lower, "math") &&
		(entry.Category == types.CategoryExams || entry.Category == types.CategoryClasses) {
		reply = strings.ReplaceAll(reply, "exams", "mathematics exams")
	}

	switch label := intent.Detect(message); {
	case label == intent.Exam && score > bandedFollowUpScore:
		reply += examFollowUp
	case label == intent.Subject && score > bandedFollowUpScore:
		reply += subjectFollowUp
	case score < lowConfidenceScore:
		reply += rephraseFollowUp
	}

	if score > highConfidenceScore {
		reply += anythingElseFollowUp
	}

	return reply
}

// recentUserContext joins the lowercased user turns among the last few
// history turns.
func recentUserContext(history []types.Turn) string {
	start := max(len(history)-contextTurns, 0)
	var parts []string
	for _, t := range history[start:] {
		if t.Role == types.RoleUser {
			parts = append(parts, strings.ToLower(t.Content))
		}
	}
	return strings.Join(parts, " ")
}
