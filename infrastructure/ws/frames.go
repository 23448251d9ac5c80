package ws

import "encoding/json"

// Client frame types. The connection's ?with peer scopes the conversation
// view; message and paging frames still name their recipient explicitly.
const (
	frameSendMessage   = "sendMessage"
	frameMoreMessages  = "requestMoreMessages"
	frameSearch        = "searchMessages"
	frameDeleteMessage = "deleteMessage"
)

// clientFrame is the envelope of every inbound websocket message.
type clientFrame struct {
	Type string          `json:"type" validate:"required"`
	Data json.RawMessage `json:"data"`
}

// serverFrame wraps every outbound event with its protocol discriminator.
type serverFrame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type sendMessagePayload struct {
	RecipientUsername string `json:"recipientUsername" validate:"required"`
	Content           string `json:"content" validate:"required,max=4000"`
}

type moreMessagesPayload struct {
	RecipientUsername string `json:"recipientUsername" validate:"required"`
	PageNumber        int    `json:"pageNumber" validate:"required,min=1"`
	PageSize          int    `json:"pageSize" validate:"min=0,max=200"`
}

type searchPayload struct {
	Query string `json:"query" validate:"required"`
}

type deleteMessagePayload struct {
	ID string `json:"id" validate:"required,uuid4"`
}
