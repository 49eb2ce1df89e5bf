package transport

import (
	"time"

	"github.com/fastygo/tasklist/domain"
)

// TaskView is a task as returned by the API. RemindAt is set only while a
// reminder is pending.
type TaskView struct {
	ID             int64      `json:"id"`
	Text           string     `json:"text"`
	Completed      bool       `json:"completed"`
	ReminderActive bool       `json:"reminderActive"`
	RemindAt       *time.Time `json:"remindAt,omitempty"`
}

func NewTaskView(t domain.Task, remindAt time.Time, pending bool) TaskView {
	v := TaskView{
		ID:             t.ID,
		Text:           t.Text,
		Completed:      t.Completed,
		ReminderActive: t.ReminderActive,
	}
	if pending && t.ReminderActive {
		at := remindAt.UTC()
		v.RemindAt = &at
	}
	return v
}

// TaskList is the body of a list response.
type TaskList struct {
	Filter domain.Filter `json:"filter"`
	Total  int           `json:"total"`
	Tasks  []TaskView    `json:"tasks"`
}

// Degraded marks a response whose change is applied in memory but not yet
// persisted.
type Degraded struct {
	Degraded bool   `json:"degraded"`
	Warning  string `json:"warning"`
}

// Message is metadata carrying a human-readable note.
type Message struct {
	Message string `json:"message"`
}
