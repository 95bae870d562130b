package types

import "errors"

var (
	// ErrProviderNotSet is returned when a provider is not configured
	ErrProviderNotSet = errors.New("provider not set")

	// ErrInvalidMessage is returned when a message is invalid
	ErrInvalidMessage = errors.New("invalid message")

	// ErrEmptyResponse is returned when the provider returns an empty response
	ErrEmptyResponse = errors.New("empty response from provider")

	// ErrVisionUnsupported is returned when image attachments are sent to a text-only model
	ErrVisionUnsupported = errors.New("model does not support image input")
)
