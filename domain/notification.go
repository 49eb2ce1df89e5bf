package domain

import "time"

// NotificationKind classifies user-facing messages emitted by the core.
type NotificationKind string

const (
	NotifyReminder        NotificationKind = "reminder"
	NotifyNothingToDelete NotificationKind = "nothing_to_delete"
	NotifyStorageError    NotificationKind = "storage_error"
	NotifyLoadError       NotificationKind = "load_error"
)

// Notification is delivered to presenters; the modality (dialog, toast, log
// line, SSE event) is the presenter's choice.
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	TaskID  int64            `json:"taskId,omitempty"`
	Message string           `json:"message"`
	At      time.Time        `json:"at"`
}
