package compose

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/intent"
	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/types"
)

var helpTopics = []string{
	"Attendance (view/mark)",
	"Assignments (create/view/due dates)",
	"Exams (schedule/past papers)",
	"Upload Files (submit documents/assignments)",
	"Students / Teachers (admin/teacher access)",
	"Login / account approval",
}

var capabilities = map[types.Role][]string{
	types.RoleAdmin: {
		"Manage Students and Teachers",
		"Create/update Assignments and Exams",
		"Approve users (admin approvals)",
		"Manage Knowledge Base (chatbot training)",
	},
	types.RoleTeacher: {
		"View Students",
		"Mark Attendance",
		"Create/update Assignments and Exams",
		"Upload study materials",
	},
	types.RoleStudent: {
		"View Attendance",
		"View Assignments and Exams",
		"Upload files (submissions/documents)",
		"Chat support",
	},
}

var helpExamples = []string{
	`"Show my upcoming exams"`,
	`"How do I submit an assignment?"`,
	`"How do I mark attendance?"`,
	`"Where can I upload files?"`,
}

type renderer func(role types.Role, rng *rand.Rand) string

// fallbacks holds the canned reply for each intent. Intents missing from
// the table fall back to DefaultPool.
var fallbacks = map[intent.Label]renderer{
	intent.Greeting: func(_ types.Role, rng *rand.Rand) string {
		return Pick(GreetingPool, rng)
	},
	intent.Help: func(role types.Role, _ *rand.Rand) string {
		return HelpText(role)
	},
	intent.Attendance: func(role types.Role, _ *rand.Rand) string {
		if role == types.RoleStudent {
			return lines(
				"To view your attendance:",
				"• Open **Attendance** from the sidebar.",
				"• Select the date to view present/absent records.",
				"",
				"If something looks incorrect, contact your class teacher.",
			)
		}
		return lines(
			"To manage attendance:",
			"• Open **Attendance** from the sidebar.",
			"• Select a class and date.",
			"• Mark students as present/absent and save.",
			"",
			"Tip: Use the stats view to quickly check attendance rate.",
		)
	},
	intent.Exam: func(role types.Role, _ *rand.Rand) string {
		closing := "Teachers/Admins can create and update exams from the Exams page."
		if role == types.RoleStudent {
			closing = "If you don’t see an exam, your teacher/admin may not have published it yet."
		}
		return lines(
			"For exams:",
			"• Open **Exams** to view upcoming exams and details.",
			"• You can filter by subject (and by class if available to your role).",
			"• Past papers can be attached to an exam (teacher/admin).",
			"",
			closing,
		)
	},
	intent.Assignments: func(role types.Role, _ *rand.Rand) string {
		closing := "Teachers/Admins can create or edit assignments from the Assignments page."
		if role == types.RoleStudent {
			closing = "To submit work, go to **Upload Files** and upload your file (choose the appropriate category/description)."
		}
		return lines(
			"For assignments:",
			"• Open **Assignments** to view all assignments for your class.",
			"• Check the due date badge (Due Soon / Overdue).",
			"",
			closing,
		)
	},
	intent.Upload: func(_ types.Role, _ *rand.Rand) string {
		return lines(
			"To upload files (documents/assignments):",
			"• Open **Upload Files** from the sidebar.",
			"• Select the file and choose a category.",
			"• Add a short description so it’s easy to find later.",
			"",
			"If object storage is configured, uploads are stored in the cloud; otherwise they may be stored locally.",
		)
	},
	intent.Teacher: func(role types.Role, _ *rand.Rand) string {
		if role == types.RoleAdmin {
			return lines(
				"To view/manage teachers:",
				"• Open **Teachers** from the sidebar.",
				"• You can add/update teacher records and contact details there.",
			)
		}
		return lines(
			"Teacher details are managed by the administrator.",
			"If you need a teacher’s contact/department info, please contact the admin or ask your teacher directly.",
		)
	},
	intent.Student: func(role types.Role, _ *rand.Rand) string {
		if role == types.RoleStudent {
			return lines(
				"Students can’t access the full Students directory in this app.",
				"If you need to update your profile details, contact your teacher/admin.",
			)
		}
		return lines(
			"To view students:",
			"• Open **Students** from the sidebar.",
			"• Use search and filters to find a student quickly.",
		)
	},
	intent.Class: func(role types.Role, _ *rand.Rand) string {
		closing := "If you need changes to class allocation, contact your admin."
		if role == types.RoleAdmin {
			closing = "Admins can manage classes (via the backend/classes module)."
		}
		return lines(
			"Classes in this system are used to group students for attendance, exams, and assignments.",
			"• You’ll see class information on relevant pages (Assignments/Exams) and in Dashboard statistics.",
			"",
			closing,
		)
	},
}

// Fallback is the canned reply for label when no answer was found.
// Unknown roles are treated as students.
func Fallback(label intent.Label, role types.Role, rng *rand.Rand) string {
	role = types.ParseRole(string(role))
	if render, ok := fallbacks[label]; ok {
		return render(role, rng)
	}
	return Pick(DefaultPool, rng)
}

// HelpText lists the help topics, what role can do, and sample questions.
func HelpText(role types.Role) string {
	role = types.ParseRole(string(role))
	return lines(
		"Here’s what I can help you with:",
		bullets(helpTopics),
		"",
		fmt.Sprintf("Based on your role (%s):", role),
		bullets(capabilities[role]),
		"",
		"Try asking:",
		bullets(helpExamples),
	)
}

func bullets(items []string) string {
	return "• " + strings.Join(items, "\n• ")
}

func lines(parts ...string) string {
	return strings.Join(parts, "\n")
}
