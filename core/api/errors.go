package api

import "errors"

// ErrNilStore is returned by New when no task store is provided.
var ErrNilStore = errors.New("api: nil task store")
