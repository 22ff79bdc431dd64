package services

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated     = errors.New("authentication required")
	ErrNotAMember          = errors.New("not a member of this channel")
	ErrInvalidContent      = errors.New("message content must not be empty")
	ErrMessageTooLong      = fmt.Errorf("%w: message too long", ErrInvalidContent)
	ErrForbidden           = errors.New("only the channel creator can do that")
	ErrCannotRemoveCreator = errors.New("the channel creator cannot be removed")
	ErrChannelNotFound     = errors.New("channel not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUsernameTaken       = errors.New("username already exists")
	ErrChannelNameTaken    = errors.New("channel name already exists")
	ErrInvalidInput        = errors.New("invalid input")
)

// Stable codes sent to clients alongside error messages.
const (
	CodeUnauthenticated     = "unauthenticated"
	CodeNotAMember          = "not_a_member"
	CodeInvalidContent      = "invalid_content"
	CodeForbidden           = "forbidden"
	CodeCannotRemoveCreator = "cannot_remove_creator"
	CodeNotFound            = "not_found"
	CodeConflict            = "conflict"
	CodeInvalidInput        = "invalid_input"
	CodeInternal            = "internal"
)

// ErrorCode maps an error onto its wire code. Anything unknown is internal.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrInvalidCredentials):
		return CodeUnauthenticated
	case errors.Is(err, ErrNotAMember):
		return CodeNotAMember
	case errors.Is(err, ErrInvalidContent):
		return CodeInvalidContent
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrCannotRemoveCreator):
		return CodeCannotRemoveCreator
	case errors.Is(err, ErrChannelNotFound), errors.Is(err, ErrUserNotFound):
		return CodeNotFound
	case errors.Is(err, ErrUsernameTaken), errors.Is(err, ErrChannelNameTaken):
		return CodeConflict
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	default:
		return CodeInternal
	}
}

// PublicMessage hides internal failure details from clients.
func PublicMessage(err error) string {
	if ErrorCode(err) == CodeInternal {
		return "operation failed"
	}
	return err.Error()
}
