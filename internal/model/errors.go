package model

import (
	"errors"
	"fmt"
)

var (
	ErrStateKeyDoesNotExist  = errors.New("state key does not exist")
	ErrSessionDoesNotExist   = errors.New("chat session does not exist")
	ErrUnsupportedAttachment = errors.New("unsupported attachment type")
	ErrEmptyMessage          = errors.New("message is empty")
)

type AttachmentError struct {
	Name     string
	MimeType string
}

func (e *AttachmentError) Error() string {
	return fmt.Sprintf("attachment %q has type %q, only images are supported", e.Name, e.MimeType)
}

func (e *AttachmentError) Unwrap() error {
	return ErrUnsupportedAttachment
}

// ErrorBody is the JSON error envelope shared by every endpoint.
type ErrorBody struct {
	Error string `json:"error"`
}
