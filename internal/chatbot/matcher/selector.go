package matcher

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/lk2023060901/school-assistant-backend/internal/chatbot/types"
)

// Thresholds depend on how many whitespace tokens the message has. The
// selector and the pipeline's acceptance step use different values for
// long messages; both are kept.
const (
	shortMessageTokens = 3

	selectorThresholdShort = 15.0
	selectorThresholdLong  = 12.0

	acceptanceThresholdShort = 12.0
	acceptanceThresholdLong  = 18.0

	minSelectableLen = 4
)

// Candidate is a scored knowledge entry.
type Candidate struct {
	Entry *types.KnowledgeEntry
	Score float64
}

// SelectorThreshold is the score a candidate must exceed to be returned
// by FindBestMatches.
func SelectorThreshold(message string) float64 {
	if len(strings.Fields(message)) > shortMessageTokens {
		return selectorThresholdLong
	}
	return selectorThresholdShort
}

// AcceptanceThreshold is the score the best candidate must exceed before
// its answer is used for a reply.
func AcceptanceThreshold(message string) float64 {
	if len(strings.Fields(message)) <= shortMessageTokens {
		return acceptanceThresholdShort
	}
	return acceptanceThresholdLong
}

// FindBestMatches scores every entry against message and returns at most
// topN candidates above SelectorThreshold, best first. Ties keep the
// input order. Messages shorter than four characters match nothing.
func FindBestMatches(message string, entries []*types.KnowledgeEntry, topN int) []Candidate {
	if utf8.RuneCountInString(strings.TrimSpace(message)) < minSelectableLen || topN <= 0 {
		return nil
	}

	scored := make([]Candidate, 0, len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		scored = append(scored, Candidate{Entry: e, Score: Score(message, e)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	threshold := SelectorThreshold(message)
	out := make([]Candidate, 0, topN)
	for _, c := range scored {
		if c.Score <= threshold {
			break
		}
		out = append(out, c)
		if len(out) == topN {
			break
		}
	}
	return out
}

// Best returns the top candidate if it clears AcceptanceThreshold.
func Best(message string, entries []*types.KnowledgeEntry) (Candidate, bool) {
	matches := FindBestMatches(message, entries, 1)
	if len(matches) == 0 || matches[0].Score <= AcceptanceThreshold(message) {
		return Candidate{}, false
	}
	return matches[0], true
}
