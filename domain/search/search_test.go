package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_TermsOnly(t *testing.T) {
	req := require.New(t)

	q := Parse("/find dinner plans")

	req.Equal("dinner plans", q.Terms)
	req.Empty(q.From)
	req.Equal(defaultLimit, q.Limit)
}

func TestParse_FlagsAndTerms(t *testing.T) {
	req := require.New(t)

	q := Parse(`/find "coffee" --from alice --limit 5`)

	req.Equal("coffee", q.Terms)
	req.Equal("alice", q.From)
	req.Equal(5, q.Limit)
}

func TestParse_InvalidLimitKeepsDefault(t *testing.T) {
	req := require.New(t)

	q := Parse("/find hello --limit nope")

	req.Equal("hello", q.Terms)
	req.Equal(defaultLimit, q.Limit)
}
