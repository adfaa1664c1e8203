package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifier_Detect(t *testing.T) {
	classifier := NewClassifier()

	tests := []struct {
		name    string
		message string
		want    Label
	}{
		{name: "attendance question", message: "How do I check my attendance?", want: Attendance},
		{name: "greeting", message: "hello", want: Greeting},
		{name: "greeting mixed case", message: "Good Morning!", want: Greeting},
		{name: "unknown", message: "xyzzy quux", want: General},
		{name: "empty", message: "", want: General},
		{name: "exam schedule", message: "exam schedule", want: Exam},
		{name: "assignments before upload", message: "submit homework", want: Assignments},
		{name: "teacher", message: "my teacher", want: Teacher},
		{name: "upload", message: "where are my notes", want: Upload},
		{name: "class", message: "my class", want: Class},
		{name: "help", message: "contact support", want: Help},
		{name: "subject", message: "physics", want: Subject},
		// "hi" is a substring of "history" and greeting is checked first
		{name: "earlier intent shadows later", message: "history", want: Greeting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.Detect(tt.message))
		})
	}
}

func TestClassifier_ClassifyReportsPhrase(t *testing.T) {
	res := NewClassifier().Classify("Where can I see my grades")
	assert.Equal(t, Exam, res.Label)
	assert.Equal(t, "grades", res.Phrase)

	res = NewClassifier().Classify("zzz")
	assert.Equal(t, General, res.Label)
	assert.Empty(t, res.Phrase)
}

func TestClassifier_KeywordContainsPhrase(t *testing.T) {
	// "exams" is not a trigger but contains "exam"
	assert.Equal(t, Exam, Detect("exams"))
	// "attend" is contained in the trigger "attendance"
	assert.Equal(t, Attendance, Detect("attend"))
}

func TestDetect_Deterministic(t *testing.T) {
	for i := 0; i < 5; i++ {
		assert.Equal(t, Attendance, Detect("mark attendance"))
	}
}
