package types

import (
	"strings"
	"time"
)

// Category groups knowledge entries by school area.
type Category string

const (
	CategoryAttendance  Category = "attendance"
	CategoryExams       Category = "exams"
	CategoryAssignments Category = "assignments"
	CategoryStudents    Category = "students"
	CategoryTeachers    Category = "teachers"
	CategoryClasses     Category = "classes"
	CategoryGeneral     Category = "general"
)

var categories = []Category{
	CategoryAttendance, CategoryExams, CategoryAssignments, CategoryStudents,
	CategoryTeachers, CategoryClasses, CategoryGeneral,
}

// Categories lists every valid category.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// KnowledgeEntry is a question/answer pair the matcher scores against.
// Question and Keywords are stored lowercase and trimmed.
type KnowledgeEntry struct {
	ID         string    `json:"id"`
	Question   string    `json:"question"`
	Keywords   []string  `json:"keywords"`
	Answer     string    `json:"answer"`
	Category   Category  `json:"category"`
	UsageCount int64     `json:"usage_count"`
	CreatedBy  string    `json:"created_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Role of a conversation participant.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Role is the school-app role of the person chatting.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// ParseRole maps unknown or empty roles to RoleStudent.
func ParseRole(s string) Role {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleTeacher:
		return r
	default:
		return RoleStudent
	}
}

// Staff reports whether r is admin or teacher.
func (r Role) Staff() bool {
	return r == RoleAdmin || r == RoleTeacher
}

// Turn is one message in a conversation.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is the ordered turn history of one user.
type Conversation struct {
	UserID    string    `json:"user_id"`
	Turns     []Turn    `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Append adds a turn stamped with now.
func (c *Conversation) Append(role, content string, now time.Time) {
	c.Turns = append(c.Turns, Turn{Role: role, Content: content, Timestamp: now})
}

// Trim keeps only the most recent max turns.
func (c *Conversation) Trim(max int) {
	if max <= 0 || len(c.Turns) <= max {
		return
	}
	kept := make([]Turn, max)
	copy(kept, c.Turns[len(c.Turns)-max:])
	c.Turns = kept
}

// LastAssistant returns the content of the latest assistant turn.
func (c *Conversation) LastAssistant() string {
	for i := len(c.Turns) - 1; i >= 0; i-- {
		if c.Turns[i].Role == RoleAssistant {
			return c.Turns[i].Content
		}
	}
	return ""
}

// Source names the responder that produced a reply.
type Source string

const (
	SourceNLU           Source = "nlu"
	SourceKnowledgeBase Source = "knowledge_base"
	SourceDefault       Source = "default"
)

// NLUMeta records what the NLU oracle said, whether or not it was used.
type NLUMeta struct {
	IntentName string   `json:"intent_name,omitempty"`
	Confidence *float64 `json:"confidence"`
	IsFallback bool     `json:"is_fallback"`
}

// KnowledgeMeta identifies the entry behind a knowledge-base reply.
type KnowledgeMeta struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`
}

// Meta describes how a reply was produced.
type Meta struct {
	Source        Source         `json:"source"`
	Intent        string         `json:"intent"`
	Score         float64        `json:"score,omitempty"`
	NLU           *NLUMeta       `json:"nlu"`
	KnowledgeBase *KnowledgeMeta `json:"knowledge_base"`
}

// Reply is the outcome of one chat turn.
type Reply struct {
	Message string `json:"message"`
	History []Turn `json:"history"`
	Meta    Meta   `json:"meta"`
}
