package transport

import (
	"encoding/json"

	"github.com/fastygo/tasklist/domain"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope wraps every API reply. Meta carries either a Degraded flag or a
// Message note; errors put the domain error code in Code.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

func NewSuccess(data interface{}) Envelope {
	return Envelope{Status: StatusSuccess, Data: data}
}

// NewDegraded reports a change applied in memory whose snapshot write failed.
func NewDegraded(data interface{}, warning error) Envelope {
	env := NewSuccess(data)
	env.Meta = Degraded{Degraded: true, Warning: warning.Error()}
	return env
}

// NewNote is a success carrying a human-readable message.
func NewNote(data interface{}, message string) Envelope {
	env := NewSuccess(data)
	env.Meta = Message{Message: message}
	return env
}

func NewError(code domain.ErrorCode, message string, meta interface{}) Envelope {
	return Envelope{
		Status: StatusError,
		Code:   string(code),
		Error:  message,
		Meta:   meta,
	}
}

// String renders the envelope for fixed replies written outside a handler.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}
