package compose

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/intent"
	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/types"
)

func userTurn(s string) types.Turn      { return types.Turn{Role: types.RoleUser, Content: s} }
func assistantTurn(s string) types.Turn { return types.Turn{Role: types.RoleAssistant, Content: s} }

func TestCompose_FollowUps(t *testing.T) {
	entry := &types.KnowledgeEntry{Answer: "Answer.", Category: types.CategoryGeneral}

	tests := []struct {
		name    string
		message string
		score   float64
		want    string
	}{
		{"exam band", "exam schedule", 40, "Answer." + examFollowUp},
		{"exam band and closing", "exam schedule", 120, "Answer." + examFollowUp + anythingElseFollowUp},
		{"subject band", "physics", 40, "Answer." + subjectFollowUp},
		{"low score rephrase", "attendance", 20, "Answer." + rephraseFollowUp},
		{"exam below band falls to rephrase", "exam", 25, "Answer." + rephraseFollowUp},
		{"middle band no suffix", "attendance", 60, "Answer."},
		{"high score closing only", "attendance", 80, "Answer." + anythingElseFollowUp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compose(tt.message, entry, nil, tt.score))
		})
	}
}

func TestCompose_Personalization(t *testing.T) {
	entry := &types.KnowledgeEntry{
		Answer:   "Open the Students page. Also see the Students page.",
		Category: types.CategoryStudents,
	}

	got := Compose("show my details", entry, nil, 60)
	assert.Equal(t, "Open your profile on the Students page. Also see the Students page.", got)

	// "my" in a recent user turn also counts
	history := []types.Turn{userTurn("what is my id"), assistantTurn("..."), userTurn("details")}
	got = Compose("details", entry, history, 60)
	assert.True(t, strings.HasPrefix(got, "Open your profile on the Students page."))

	// older turns are out of the window
	history = []types.Turn{userTurn("my id"), assistantTurn("a"), assistantTurn("b"), userTurn("details")}
	got = Compose("details", entry, history, 60)
	assert.Equal(t, entry.Answer, got)
}

func TestCompose_MathInjection(t *testing.T) {
	exams := &types.KnowledgeEntry{Answer: "Check exams and exams.", Category: types.CategoryExams}
	general := &types.KnowledgeEntry{Answer: "Check exams.", Category: types.CategoryGeneral}

	// "math" is also a subject trigger
	assert.Equal(t, "Check mathematics exams and mathematics exams."+subjectFollowUp, Compose("math", exams, nil, 60))
	assert.Equal(t, "Check exams."+subjectFollowUp, Compose("math", general, nil, 60))
}

func TestPick(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		assert.Contains(t, ClosingPool, Pick(ClosingPool, rng))
	}
	assert.Empty(t, Pick(nil, rng))
	assert.Contains(t, GreetingPool, Pick(GreetingPool, nil))

	a := Pick(DefaultPool, rand.New(rand.NewSource(7)))
	b := Pick(DefaultPool, rand.New(rand.NewSource(7)))
	assert.Equal(t, a, b)
}

func TestFallback_RoleAware(t *testing.T) {
	student := Fallback(intent.Attendance, types.RoleStudent, nil)
	teacher := Fallback(intent.Attendance, types.RoleTeacher, nil)
	assert.True(t, strings.HasPrefix(student, "To view your attendance:"))
	assert.True(t, strings.HasPrefix(teacher, "To manage attendance:"))

	assert.Contains(t, Fallback(intent.Teacher, types.RoleAdmin, nil), "To view/manage teachers:")
	assert.Contains(t, Fallback(intent.Teacher, types.RoleStudent, nil), "managed by the administrator")
	assert.Contains(t, Fallback(intent.Class, types.RoleAdmin, nil), "Admins can manage classes")
	assert.Contains(t, Fallback(intent.Class, types.RoleTeacher, nil), "contact your admin")

	// unknown roles are students
	assert.Equal(t, student, Fallback(intent.Attendance, types.Role("janitor"), nil))
}

func TestFallback_Pools(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	assert.Contains(t, GreetingPool, Fallback(intent.Greeting, types.RoleStudent, rng))
	assert.Contains(t, DefaultPool, Fallback(intent.General, types.RoleAdmin, rng))
	assert.Contains(t, DefaultPool, Fallback(intent.Subject, types.RoleAdmin, rng))
}

func TestHelpText(t *testing.T) {
	text := HelpText(types.RoleTeacher)
	require.Contains(t, text, "Based on your role (teacher):")
	assert.Contains(t, text, "• Mark Attendance")
	assert.Contains(t, text, "• Login / account approval")
	assert.Contains(t, text, `• "Where can I upload files?"`)

	assert.Contains(t, HelpText(""), "Based on your role (student):")
	assert.Equal(t, text, Fallback(intent.Help, types.RoleTeacher, nil))
}
