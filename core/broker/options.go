package broker

// DefaultMaxMessageSize bounds a single queue message at 1 MiB. Payloads are
// user-supplied strings; anything larger points at a misuse of the queue.
const DefaultMaxMessageSize = 1 << 20

// Option configures a broker instance.
type Option func(*options)

type options struct {
	label          string
	maxMessageSize int
}

func defaultOptions() *options {
	return &options{
		label:          "default",
		maxMessageSize: DefaultMaxMessageSize,
	}
}

// WithLabel names the instance in logs and stats, conventionally "high" or
// "low". Empty labels are ignored.
func WithLabel(label string) Option {
	return func(o *options) {
		if label != "" {
			o.label = label
		}
	}
}

// WithMaxMessageSize overrides the per-message size limit. Values below one
// are ignored.
func WithMaxMessageSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxMessageSize = n
		}
	}
}
