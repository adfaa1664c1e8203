package matcher

import (
	"strings"
	"unicode/utf8"

	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/intent"
	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/similarity"
	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/textnorm"
	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/types"
)

// Score weights.
const (
	exactMatchWeight      = 100.0
	containmentWeight     = 50.0
	questionSimWeight     = 30.0
	keywordHitWeight      = 15.0
	keywordFuzzyWeight    = 10.0
	keywordFuzzyCutoff    = 0.7
	wordOverlapWeight     = 5.0
	intentMatchWeight     = 25.0
	examTermWeight        = 15.0
	subjectTermWeight     = 20.0
	answerOverlapWeight   = 3.0
	lengthSimilarityScale = 5.0

	minContainmentLen = 4
)

var examTerms = []string{"schedule", "date", "when", "time", "results", "marks", "grades", "score"}

var subjectTerms = []string{
	"mathematics", "math", "maths", "science", "physics", "chemistry", "biology",
	"english", "language", "history", "geography", "computer",
}

// Score rates how well entry answers message. It is deterministic and
// never negative; higher is better.
func Score(message string, entry *types.KnowledgeEntry) float64 {
	msg := strings.ToLower(strings.TrimSpace(message))
	msgWords := textnorm.ExtractKeywords(msg)
	question := strings.ToLower(entry.Question)
	answer := strings.ToLower(entry.Answer)

	var score float64

	if question == msg {
		score += exactMatchWeight
	}

	// short inputs like "hi" would otherwise match inside "this"
	if utf8.RuneCountInString(msg) >= minContainmentLen && (strings.Contains(question, msg) || strings.Contains(msg, question)) {
		score += containmentWeight
	}

	score += similarity.Similarity(msg, question) * questionSimWeight

	for _, kw := range entry.Keywords {
		kw = strings.ToLower(kw)
		if strings.Contains(msg, kw) {
			score += keywordHitWeight
		}
		for _, w := range msgWords {
			if sim := similarity.Similarity(w, kw); sim > keywordFuzzyCutoff {
				score += sim * keywordFuzzyWeight
			}
		}
	}

	entryWords := textnorm.ExtractKeywords(question + " " + answer)
	score += float64(countPresent(msgWords, entryWords)) * wordOverlapWeight

	detected := intent.Detect(msg)
	if string(entry.Category) == string(detected) {
		score += intentMatchWeight
	}

	if detected == intent.Exam && entry.Category == types.CategoryExams {
		score += float64(countBoosts(msg, question, answer, examTerms)) * examTermWeight
	}
	if detected == intent.Subject {
		score += float64(countBoosts(msg, question, answer, subjectTerms)) * subjectTermWeight
	}

	answerWords := textnorm.ExtractKeywords(answer)
	score += float64(countPresent(msgWords, answerWords)) * answerOverlapWeight

	msgLen, qLen := utf8.RuneCountInString(msg), utf8.RuneCountInString(question)
	if maxLen := max(msgLen, qLen); maxLen > 0 {
		diff := msgLen - qLen
		if diff < 0 {
			diff = -diff
		}
		score += (1 - float64(diff)/float64(maxLen)) * lengthSimilarityScale
	}

	return score
}

// countPresent counts the words (with repetition) that appear in pool.
func countPresent(words, pool []string) int {
	if len(words) == 0 || len(pool) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(pool))
	for _, p := range pool {
		set[p] = struct{}{}
	}
	n := 0
	for _, w := range words {
		if _, ok := set[w]; ok {
			n++
		}
	}
	return n
}

func countBoosts(msg, question, answer string, terms []string) int {
	n := 0
	for _, t := range terms {
		if strings.Contains(msg, t) && (strings.Contains(question, t) || strings.Contains(answer, t)) {
			n++
		}
	}
	return n
}
