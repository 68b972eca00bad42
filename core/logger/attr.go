package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Helpers return the zero slog.Attr when given nothing to log, so callers
// can pass them unconditionally: log.Info("msg", logger.Error(err)).

// Group nests attrs under name.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error logs err under "error". Nil yields the zero Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors logs the non-nil errors as an indexed group under "errors",
// keeping their original positions as keys.
func Errors(errs ...error) slog.Attr {
	count := 0
	for _, err := range errs {
		if err != nil {
			count++
		}
	}
	if count == 0 {
		return slog.Attr{}
	}

	as := make([]slog.Attr, 0, count)
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Duration logs d under "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Latency logs d under "latency". Same shape as Duration, request-scoped name.
func Latency(d time.Duration) slog.Attr {
	return slog.Duration("latency", d)
}

// ID logs an identifier under a caller-chosen key. Nil yields the zero Attr.
func ID(key string, value any) slog.Attr {
	if value == nil {
		return slog.Attr{}
	}
	return slog.Any(key, value)
}

// TaskID logs a task row id under "task_id".
func TaskID(id int64) slog.Attr {
	return slog.Int64("task_id", id)
}

// WorkerID logs a worker instance id under "worker_id". Empty yields the
// zero Attr.
func WorkerID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("worker_id", id)
}

// Method logs an HTTP method under "method".
func Method(method string) slog.Attr {
	return slog.String("method", method)
}

// Path logs a URL path under "path".
func Path(path string) slog.Attr {
	return slog.String("path", path)
}

// StatusCode logs an HTTP status under "status_code".
func StatusCode(code int) slog.Attr {
	return slog.Int("status_code", code)
}

// Component logs the emitting subsystem under "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Count logs a counter under a caller-chosen key.
func Count(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// Key logs an arbitrary value under a caller-chosen key. Nil yields the
// zero Attr.
func Key(key string, value any) slog.Attr {
	if value == nil {
		return slog.Attr{}
	}
	return slog.Any(key, value)
}

// RetryCount logs an attempt counter under "retry_count".
func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}
