package registry

import "errors"

var (
	// ErrHandlerNotFound is returned by Resolve for an unregistered title.
	// Workers report it through the retry path, so an unknown title retries
	// up to the budget instead of losing the task.
	ErrHandlerNotFound = errors.New("registry: handler not found")
	// ErrDuplicateHandler signals two registrations under one title, always a
	// programming error caught at startup.
	ErrDuplicateHandler = errors.New("registry: handler already registered")
	// ErrInvalidPayload is returned by typed handlers when the payload does
	// not decode into the expected shape.
	ErrInvalidPayload = errors.New("registry: invalid payload")
)
