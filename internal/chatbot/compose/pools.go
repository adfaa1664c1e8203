package compose

import "math/rand"

// Canned reply pools. Treat as read-only.
var (
	GreetingPool = []string{
		"Hello! I can help with Attendance, Assignments, Exams, file uploads, and basic navigation. What would you like to do?",
		"Hi! Ask me about upcoming exams, assignments due dates, marking attendance, or uploading files.",
		"Welcome! Tell me what you need help with (attendance, exams, assignments, uploads, students, teachers).",
	}

	DefaultPool = []string{
		"I don’t have that information yet. Please try rephrasing your question or contact your administrator for help.",
		"I’m not able to confirm that from the system right now. If you tell me your class/subject, I can guide you to the right place in the app.",
		"I couldn’t find a clear match. Try asking about Attendance, Assignments, Exams, Uploads, Students, or Teachers.",
	}

	ClosingPool = []string{
		"No problem — happy to help. Have a great day!",
		"Alright! If you need anything later, just message me. Take care.",
		"Understood. Thanks for chatting — goodbye!",
	}
)

// Pick returns a random element of pool drawn from rng, or "" for an
// empty pool. A nil rng uses the global source.
func Pick(pool []string, rng *rand.Rand) string {
	if len(pool) == 0 {
		return ""
	}
	if rng == nil {
		return pool[rand.Intn(len(pool))]
	}
	return pool[rng.Intn(len(pool))]
}
