package webhooks

import "errors"

// Store errors.
var (
	ErrWebhookNotFound = errors.New("webhook not found")
	ErrWebhookExists   = errors.New("webhook with this section, verb and callback already exists")
)

// Validation errors. Field errors are returned wrapped in ErrValidation.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidLabel       = errors.New("label must be non-empty and at most 64 characters")
	ErrInvalidVerb        = errors.New("verb must be one of POST, PUT, DELETE")
	ErrInvalidCallbackURL = errors.New("callback must be an absolute http(s) URL of at most 256 characters")
	ErrSectionNotFound    = errors.New("section not found")
)

// Dispatch errors.
var (
	ErrUnknownMutationKind = errors.New("unknown mutation kind")
	ErrQueueFull           = errors.New("dispatch queue is full")
	ErrQueueStopped        = errors.New("dispatch queue is stopped")
)
