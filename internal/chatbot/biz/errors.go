package biz

import "errors"

var (
	// ErrEmptyMessage is returned for blank chat input. Nothing is stored.
	ErrEmptyMessage = errors.New("message is required")

	// ErrUserRequired is returned when no user id accompanies a request.
	ErrUserRequired = errors.New("user id is required")

	// ErrConversationNotFound is returned by ConversationRepo.Get for users
	// who have never chatted.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrUserBusy is returned when another turn for the same user holds the lock.
	ErrUserBusy = errors.New("another message from this user is being processed")
)
