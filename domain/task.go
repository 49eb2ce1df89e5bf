package domain

import "strings"

// Task is a single to-do item. ReminderActive mirrors whether the reminder
// scheduler holds a pending alarm for the task; the alarm itself never leaves
// the process.
type Task struct {
	ID             int64  `json:"id"`
	Text           string `json:"text"`
	Completed      bool   `json:"completed"`
	ReminderActive bool   `json:"reminderActive"`
}

// NormalizeText trims user input; an empty result is rejected by callers.
func NormalizeText(text string) string {
	return strings.TrimSpace(text)
}

// Filter selects which tasks a list view shows.
type Filter string

const (
	FilterAll        Filter = "all"
	FilterCompleted  Filter = "completed"
	FilterIncomplete Filter = "incomplete"
)

// ParseFilter maps user input to a Filter. The empty string means all tasks.
func ParseFilter(value string) (Filter, error) {
	switch Filter(strings.ToLower(strings.TrimSpace(value))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterCompleted:
		return FilterCompleted, nil
	case FilterIncomplete:
		return FilterIncomplete, nil
	default:
		return "", ErrInvalidFilter
	}
}

// Match reports whether the task belongs in the filtered view.
func (f Filter) Match(t Task) bool {
	switch f {
	case FilterCompleted:
		return t.Completed
	case FilterIncomplete:
		return !t.Completed
	default:
		return true
	}
}

// SeedRecord is the remote placeholder shape consumed by the bootstrap loader.
type SeedRecord struct {
	ID        int64  `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	Completed bool   `json:"completed" yaml:"completed"`
}
