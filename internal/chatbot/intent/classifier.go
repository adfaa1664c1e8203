package intent

import (
	"strings"

	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/textnorm"
)

// Label is a coarse category of what the user is asking about.
type Label string

const (
	Greeting    Label = "greeting"
	Attendance  Label = "attendance"
	Exam        Label = "exam"
	Assignments Label = "assignments"
	Subject     Label = "subject"
	Student     Label = "student"
	Teacher     Label = "teacher"
	Upload      Label = "upload"
	Class       Label = "class"
	Help        Label = "help"
	General     Label = "general"
)

// Result explains a classification. Phrase is the trigger that fired,
// empty for General.
type Result struct {
	Label  Label
	Phrase string
}

type rule struct {
	label   Label
	phrases []string
}

// rules are evaluated top to bottom; an earlier intent shadows a later
// one that would also match.
var rules = []rule{
	{Greeting, []string{"hi", "hello", "hey", "good morning", "good afternoon", "greetings"}},
	{Attendance, []string{"attendance", "present", "absent", "mark attendance", "check attendance", "my attendance"}},
	{Exam, []string{
		"exam", "test", "examination", "upcoming exam", "exam schedule", "exam results", "grades",
		"marks", "scores", "test date", "test schedule", "examination date", "when is exam", "exam timetable",
	}},
	{Assignments, []string{
		"assignment", "assignments", "homework", "submit", "submission", "upload assignment",
		"due date", "deadline", "past papers", "materials",
	}},
	{Subject, []string{
		"subject", "subjects", "course", "courses", "mathematics", "math", "maths", "science",
		"physics", "chemistry", "biology", "english", "language", "history", "geography",
		"computer", "informatics",
	}},
	{Student, []string{"student", "my profile", "student info", "student information", "my details"}},
	{Teacher, []string{"teacher", "teachers", "faculty", "instructor", "professor"}},
	{Upload, []string{
		"upload", "file", "document", "assignment", "certificate", "submit", "submission",
		"homework", "study materials", "notes", "resources",
	}},
	{Class, []string{"class", "classes", "schedule", "timetable", "my class", "class schedule"}},
	{Help, []string{"help", "support", "assistance", "contact", "how", "what can you", "guide"}},
}

// Classifier maps free text onto a Label using the ordered trigger table.
type Classifier struct {
	rules []rule
}

// NewClassifier returns a classifier over the built-in trigger table.
func NewClassifier() *Classifier {
	return &Classifier{rules: rules}
}

// Classify returns the first intent with a matching trigger. A trigger
// matches when it is a substring of the lowercased message, or when a
// message keyword and the trigger contain one another.
func (c *Classifier) Classify(message string) Result {
	lower := strings.ToLower(message)
	words := textnorm.ExtractKeywords(message)

	for _, r := range c.rules {
		for _, phrase := range r.phrases {
			if strings.Contains(lower, phrase) || overlapsAny(words, phrase) {
				return Result{Label: r.label, Phrase: phrase}
			}
		}
	}
	return Result{Label: General}
}

// Detect is Classify without the explanation.
func (c *Classifier) Detect(message string) Label {
	return c.Classify(message).Label
}

func overlapsAny(words []string, phrase string) bool {
	for _, w := range words {
		if strings.Contains(phrase, w) || strings.Contains(w, phrase) {
			return true
		}
	}
	return false
}

var defaultClassifier = NewClassifier()

// Detect classifies message with the built-in trigger table.
func Detect(message string) Label {
	return defaultClassifier.Detect(message)
}
