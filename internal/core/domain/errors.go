package domain

import (
	"errors"
	"fmt"
)

var (
	ErrLoginRequired = errors.New("login required")
	ErrForbidden     = errors.New("forbidden")
	ErrCancelled     = errors.New("cancelled by user")
	ErrNotFound      = errors.New("not found")
)

// A RemoteError is a non-successful response of the remote API.
//
// Message is empty when the response carried no message field.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote api: status %d", e.Status)
	}
	return fmt.Sprintf("remote api: status %d: %s", e.Status, e.Message)
}
