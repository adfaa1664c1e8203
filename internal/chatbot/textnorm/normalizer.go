package textnorm

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var nonWord = regexp.MustCompile(`[^\w\s]`)

// stopWords are dropped by ExtractKeywords. The trailing group holds
// UI words ("show", "help", "please") that carry no topic.
var stopWords = buildSet(
	"a", "an", "the", "is", "are", "was", "were", "be", "been", "being",
	"have", "has", "had", "do", "does", "did", "will", "would", "should",
	"could", "may", "might", "must", "can", "to", "of", "in", "on", "at",
	"for", "with", "by", "from", "as", "about", "into", "through", "during",
	"how", "what", "when", "where", "why", "who", "which", "this", "that",
	"these", "those", "i", "you", "he", "she", "it", "we", "they", "me",
	"him", "her", "us", "them", "my", "your", "his", "its", "our", "their",
	"please", "tell", "show", "help",
)

func buildSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Normalize lowercases text, turns punctuation into spaces, collapses
// whitespace runs and trims the ends.
func Normalize(text string) string {
	lowered := strings.ToLower(text)
	return strings.Join(strings.Fields(nonWord.ReplaceAllString(lowered, " ")), " ")
}

// ExtractKeywords returns the content tokens of text in order, duplicates
// included. Tokens must be longer than two characters and not stop words.
func ExtractKeywords(text string) []string {
	tokens := strings.Fields(nonWord.ReplaceAllString(strings.ToLower(text), " "))
	keywords := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if len(tok) <= 2 {
			continue
		}
		if IsStopWord(tok) {
			continue
		}
		keywords = append(keywords, tok)
	}
	return keywords
}

// IsStopWord reports whether word is in the stop-word set.
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}

// AutoKeywords derives keywords for a knowledge entry that was saved
// without any: whitespace-separated words of the question longer than
// three characters.
func AutoKeywords(question string) []string {
	words := strings.Fields(strings.ToLower(question))
	keywords := make([]string, 0, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) > 3 {
			keywords = append(keywords, w)
		}
	}
	return keywords
}

// CleanKeywords lowercases and trims every keyword, dropping empty ones.
func CleanKeywords(keywords []string) []string {
	cleaned := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			cleaned = append(cleaned, k)
		}
	}
	return cleaned
}

// Contains reports whether set holds word.
func Contains(set []string, word string) bool {
	for _, s := range set {
		if s == word {
			return true
		}
	}
	return false
}
