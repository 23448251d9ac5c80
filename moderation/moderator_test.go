package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// The dictionary uses specific words to avoid partial collisions
// (e.g., "he" inside "The").
func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	dictionary := []string{"badger", "snake", "mushroom"}
	mod, err := NewModerator(dictionary, replacementChar)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
		hits     int
	}{
		{
			name:     "Simple word and space preservation",
			input:    "The badger is here",
			expected: "The ****** is here",
			hits:     1,
		},
		{
			name:     "Multiple occurrences and preserved spacing",
			input:    "badger badger badger",
			expected: "****** ****** ******",
			hits:     3,
		},
		{
			name: "Leet speak and internal punctuation",
			// s.n.4.k.e spans 9 original runes including the dots
			input:    "Look at the s.n.4.k.e !",
			expected: "Look at the ********* !",
			hits:     1,
		},
		{
			name:     "Clean message untouched",
			input:    "See you at eight",
			expected: "See you at eight",
			hits:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			censored, hits := mod.Censor(tt.input)
			req.Equal(tt.expected, censored)
			req.Len(hits, tt.hits)
		})
	}
}

func TestModerator_EmptyInput(t *testing.T) {
	req := require.New(t)
	mod, err := NewModerator([]string{"badger"}, replacementChar)
	req.NoError(err)

	censored, hits := mod.Censor("")
	req.Empty(censored)
	req.Empty(hits)
}
