package broker

import "errors"

// Broker errors. Use errors.Is() to match.
var (
	// ErrNilClient is returned by New when no redis client is provided.
	ErrNilClient = errors.New("broker: nil redis client")
	// ErrNoMessage is returned by PopToProcessing when the queue stayed empty
	// for the full blocking window. Callers poll again; this is not a failure.
	ErrNoMessage = errors.New("broker: no message available")
	// ErrMessageTooLarge is returned when a message exceeds the per-message
	// size limit. The task row stays PENDING and is visible in logs.
	ErrMessageTooLarge = errors.New("broker: message exceeds size limit")
	// ErrIncompletePair is returned by NewPair when either instance is nil.
	ErrIncompletePair = errors.New("broker: pair requires both high and low instances")
)
