package api

import (
	"errors"
	"fmt"
)

// ErrFileTooLarge is returned when a profile picture exceeds
// MaxPictureSize. No request is sent.
var ErrFileTooLarge = errors.New("api: file exceeds upload limit")

// RejectedError is an application-level rejection: the server answered
// with `success: false`.
type RejectedError struct {
	Op      string
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %s rejected", e.Op)
	}
	return fmt.Sprintf("api: %s rejected: %s", e.Op, e.Message)
}

// ServerMessage returns the text the server supplied for the user.
func (e *RejectedError) ServerMessage() string {
	return e.Message
}

// StatusError is a non-2xx response without a usable JSON body.
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api: %s: unexpected status %d", e.Op, e.Code)
}
