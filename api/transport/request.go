package transport

import "encoding/json"

type TaskRequest struct {
	Text string `json:"text"`
}

// ReminderRequest carries the delay in seconds, as a JSON number or a
// numeric string.
type ReminderRequest struct {
	Seconds json.Number `json:"seconds"`
}
