package domain

import "time"

// SendMessageCommand is the intent of a connected user to message another user.
type SendMessageCommand struct {
	SenderUsername    string
	RecipientUsername string
	Content           string
	SentAt            time.Time
}

// ThreadPageCommand asks for one page of older history between the requester
// and the other participant. PageNumber starts at 1 on the most recent page.
type ThreadPageCommand struct {
	RequesterUsername string
	RecipientUsername string
	PageNumber        int
	PageSize          int
}

// SearchCommand carries a raw "/find"-style query over the caller's conversation.
type SearchCommand struct {
	RequesterUsername string
	OtherUsername     string
	RawQuery          string
}
