package services

import "errors"

var (
	// ErrInvalidArgument signals a missing or empty required field.
	ErrInvalidArgument = errors.New("missing required argument")

	// ErrProfileNotFound signals that the peer username resolves to no profile.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrSenderProfileNotFound signals that the sender has not completed
	// profile creation yet.
	ErrSenderProfileNotFound = errors.New("sender profile not found")

	// ErrSelfMessage signals an attempt to message oneself.
	ErrSelfMessage = errors.New("cannot send message to yourself")

	// ErrChatOperationFailed signals that a chat persistence step failed after
	// the message was stored; the compensating delete has already been attempted.
	ErrChatOperationFailed = errors.New("chat operation failed")
)
