package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Handler executes one kind of task. The payload arrives as the opaque string
// the submitter provided; the returned value is formatted by FormatResult and
// stored on the task row.
type Handler interface {
	// Name returns the task title this handler serves.
	Name() string

	// Handle runs the task. The context carries the execution deadline;
	// long-running handlers should observe it.
	Handle(ctx context.Context, payload string) (any, error)
}

// Func adapts a plain function into a Handler.
type Func struct {
	name string
	fn   func(context.Context, string) (any, error)
}

// NewFunc names a handler function.
//
// Example:
//
//	h := registry.NewFunc("cleanup", func(ctx context.Context, payload string) (any, error) {
//		return nil, purgeExpired(ctx)
//	})
func NewFunc(name string, fn func(context.Context, string) (any, error)) *Func {
	return &Func{name: name, fn: fn}
}

// Name returns the task title this handler serves.
func (f *Func) Name() string {
	return f.name
}

// Handle runs the wrapped function.
func (f *Func) Handle(ctx context.Context, payload string) (any, error) {
	return f.fn(ctx, payload)
}

// JSONFunc decodes the payload into T before invoking the function, so
// handlers work with typed arguments instead of raw strings.
type JSONFunc[T any] struct {
	name string
	fn   func(context.Context, T) (any, error)
}

// NewJSONFunc creates a typed handler. An empty payload yields the zero value
// of T; a payload that fails to decode is a handler error and follows the
// retry path.
//
// Example:
//
//	type resizeArgs struct {
//		URL   string `json:"url"`
//		Width int    `json:"width"`
//	}
//
//	h := registry.NewJSONFunc("resize_image", func(ctx context.Context, args resizeArgs) (any, error) {
//		return images.Resize(ctx, args.URL, args.Width)
//	})
func NewJSONFunc[T any](name string, fn func(context.Context, T) (any, error)) *JSONFunc[T] {
	return &JSONFunc[T]{name: name, fn: fn}
}

// Name returns the task title this handler serves.
func (h *JSONFunc[T]) Name() string {
	return h.name
}

// Handle decodes the payload and runs the wrapped function.
func (h *JSONFunc[T]) Handle(ctx context.Context, payload string) (any, error) {
	var args T
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &args); err != nil {
			return nil, errors.Join(ErrInvalidPayload, fmt.Errorf("decode %s payload: %w", h.name, err))
		}
	}
	return h.fn(ctx, args)
}
