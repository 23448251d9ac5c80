package repositories

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/stretchr/testify/require"

	"heartline/domain/search"
)

func openTestIndex(t *testing.T) MessageIndex {
	t.Helper()
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return NewMessageIndex(writer, slog.Default())
}

func TestMessageIndex_SearchScopedToConversation(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	index := openTestIndex(t)
	at := time.Now().UTC()

	// Given the same word in two different conversations
	req.NoError(index.Index(message("alice", "bob", "dinner at eight", at)))
	req.NoError(index.Index(message("alice", "carol", "dinner was great", at)))
	req.NoError(index.Index(message("bob", "alice", "see you there", at)))

	// When searching the alice-bob conversation
	matches, err := index.Search(ctx, "alice-bob", search.Parse("/find dinner"))
	req.NoError(err)

	// Then only the alice-bob message surfaces
	req.Len(matches, 1)
	req.Equal("dinner at eight", matches[0].Content)
}

func TestMessageIndex_SenderFilterAndLimit(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	index := openTestIndex(t)
	at := time.Now().UTC()

	req.NoError(index.Index(message("alice", "bob", "coffee tomorrow", at)))
	req.NoError(index.Index(message("bob", "alice", "coffee sounds good", at.Add(time.Minute))))

	matches, err := index.Search(ctx, "alice-bob", search.Parse("/find coffee --from bob --limit 1"))
	req.NoError(err)

	req.Len(matches, 1)
	req.Equal("bob", matches[0].SenderUsername)
}

func TestMessageIndex_NoMatch(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	matches, err := index.Search(context.Background(), "alice-bob", search.Parse("/find nothing"))

	req.NoError(err)
	req.Empty(matches)
}
