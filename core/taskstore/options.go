package taskstore

// DefaultMaxRetries bounds handler attempts before a task fails for good.
const DefaultMaxRetries = 3

// Option configures a store instance.
type Option func(*options)

type options struct {
	maxRetries int
}

func defaultOptions() *options {
	return &options{maxRetries: DefaultMaxRetries}
}

// WithMaxRetries overrides the retry budget used by MarkForRetry and
// RequeueDead. Values below zero are ignored.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}
