package monitor

import "time"

type Status struct {
	Store           bool      `json:"store"`
	Backend         string    `json:"backend"`
	PendingSnapshot bool      `json:"pending_snapshot"`
	LastCheck       time.Time `json:"last_check"`
}
