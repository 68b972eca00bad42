package registry

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Messager lets a handler return a rich value while controlling the string
// stored as the task result.
type Messager interface {
	Message() string
}

// Result is a convenience return value for handlers that want to report an
// outcome with structured data attached. The stored result is the message.
type Result struct {
	Success bool           `json:"success"`
	Msg     string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// Message implements Messager.
func (r Result) Message() string {
	return r.Msg
}

// FormatResult converts a handler's return value into the string persisted
// on the task row. Nil becomes empty, a Messager contributes its message,
// maps serialize to JSON, strings pass through, everything else uses its
// default string form.
func FormatResult(v any) string {
	if v == nil {
		return ""
	}

	if m, ok := v.(Messager); ok {
		return m.Message()
	}

	if s, ok := v.(string); ok {
		return s
	}

	if reflect.ValueOf(v).Kind() == reflect.Map {
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
	}

	return fmt.Sprint(v)
}
