package repositories

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/blugelabs/bluge"

	"heartline/domain"
	"heartline/domain/search"
)

// MessageIndex mirrors persisted messages into a Bluge full-text index so a
// conversation can be searched with free text. The badger store stays the
// source of truth; the index only holds a stored copy for hydration.
type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewMessageIndex(writer *bluge.Writer, log *slog.Logger) MessageIndex {
	return MessageIndex{writer: writer, log: log}
}

// Index upserts one message. Indexing is best-effort from the router's point
// of view; a failed update never blocks message delivery.
func (x MessageIndex) Index(message domain.Message) error {
	raw, err := json.Marshal(message)
	if err != nil {
		return err
	}

	groupKey := domain.GroupKey(message.SenderUsername, message.RecipientUsername)
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewKeywordField("group", groupKey)).
		AddField(bluge.NewKeywordField("sender", message.SenderUsername)).
		AddField(bluge.NewTextField("content", message.Content)).
		AddField(bluge.NewStoredOnlyField("raw", raw))

	return x.writer.Update(doc.ID(), doc)
}

// Search runs a parsed query against one conversation and hydrates matches
// from the stored copy.
func (x MessageIndex) Search(ctx context.Context, groupKey string, query *search.Query) ([]domain.Message, error) {
	reader, err := x.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			x.log.Warn("Failed to close index reader", "error", err)
		}
	}()

	boolean := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(groupKey).SetField("group"))
	if query.Terms != "" {
		boolean.AddMust(bluge.NewMatchQuery(query.Terms).SetField("content"))
	}
	if query.From != "" {
		boolean.AddMust(bluge.NewTermQuery(query.From).SetField("sender"))
	}

	request := bluge.NewTopNSearch(query.Limit, boolean)
	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var messages []domain.Message
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		var m domain.Message
		var decodeErr error
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "raw" {
				decodeErr = json.Unmarshal(value, &m)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		if decodeErr != nil {
			return nil, decodeErr
		}
		messages = append(messages, m)
	}
	return messages, nil
}
