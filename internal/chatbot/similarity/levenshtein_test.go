package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"abc", "abd", 1},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"exam", "exams", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, Distance(tt.a, tt.b))
			assert.Equal(t, tt.want, Distance(tt.b, tt.a), "distance must be symmetric")
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 1.0, Similarity("attendance", "attendance"))
	assert.Equal(t, 1.0, Similarity("Exam", "eXAM"))
	assert.InDelta(t, 0.667, Similarity("abc", "abd"), 0.001)
	assert.Equal(t, 0.0, Similarity("abc", ""))
	assert.Equal(t, Similarity("math", "maths"), Similarity("maths", "math"))
}

func TestSimilarity_Unicode(t *testing.T) {
	// one rune differs out of four
	assert.InDelta(t, 0.75, Similarity("café", "cafe"), 0.0001)
}
