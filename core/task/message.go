package task

import (
	"encoding/json"
	"errors"
)

// ErrMalformedMessage marks broker payloads that cannot identify a task.
// Such messages are poisoned: consumers remove them and move on.
var ErrMalformedMessage = errors.New("task: malformed queue message")

// Message is the wire format for queued tasks: a UTF-8 JSON object with
// task_id, title and an opaque payload string.
//
// Messages decoded from a queue keep their original bytes. Producers that
// move a message between queues must forward Bytes() unchanged so unknown
// keys added by other writers survive the trip.
type Message struct {
	TaskID  int64  `json:"task_id"`
	Title   string `json:"title"`
	Payload string `json:"payload"`

	raw []byte
}

// NewMessage builds a wire message for t.
func NewMessage(t Task) Message {
	return Message{
		TaskID:  t.ID,
		Title:   t.Title,
		Payload: t.Payload,
	}
}

// DecodeMessage parses raw into a Message, retaining raw for re-transmission.
// Invalid JSON or a missing task id yields ErrMalformedMessage.
func DecodeMessage(raw []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Message{}, errors.Join(ErrMalformedMessage, err)
	}
	if m.TaskID <= 0 {
		return Message{}, errors.Join(ErrMalformedMessage, errors.New("missing task_id"))
	}
	m.raw = raw
	return m, nil
}

// Bytes returns the message encoding. For decoded messages this is the
// original input verbatim; for constructed messages it is a fresh marshal.
func (m Message) Bytes() []byte {
	if m.raw != nil {
		return m.raw
	}
	// Marshaling a flat struct of scalars cannot fail.
	b, _ := json.Marshal(m)
	return b
}
