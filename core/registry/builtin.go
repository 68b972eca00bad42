package registry

import (
	"context"
	"fmt"
	"time"
)

// Echo returns a handler that reflects the payload back as its result.
// Useful as a smoke test through the whole pipeline.
func Echo() Handler {
	return NewFunc("echo", func(_ context.Context, payload string) (any, error) {
		return "echo: " + payload, nil
	})
}

type sleepArgs struct {
	Seconds int `json:"seconds"`
}

// Sleep returns a handler that idles for the requested number of seconds,
// observing cancellation. It exists to exercise timeouts, crash recovery,
// and queue draining under load.
func Sleep() Handler {
	return NewJSONFunc("sleep", func(ctx context.Context, args sleepArgs) (any, error) {
		if args.Seconds < 0 {
			return nil, fmt.Errorf("negative sleep duration: %d", args.Seconds)
		}

		select {
		case <-time.After(time.Duration(args.Seconds) * time.Second):
			return Result{Success: true, Msg: fmt.Sprintf("slept %d seconds", args.Seconds)}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
}
