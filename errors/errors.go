package errors

import "fmt"

var (
	// Protocol-level errors, reported to the originating caller only.
	ErrSelfMessage       = fmt.Errorf("recipient and sender are the same user")
	ErrRecipientNotFound = fmt.Errorf("recipient does not exist")
	ErrGroupNotFound     = fmt.Errorf("connection is not a member of any conversation group")
	ErrPersistence       = fmt.Errorf("message could not be persisted")

	ErrWorkerPanic    = fmt.Errorf("worker panic")
	ErrInvalidPayload = fmt.Errorf("invalid event payload")
	ErrEmptyWords     = fmt.Errorf("no words have been found")
)
