// Package reminder keeps at most one pending one-shot alarm per task.
//
// A Scheduler is owned by a single logical thread (its owner's lock). All
// methods must be called while that lock is held. Timer callbacks never touch
// scheduler state directly: they hand the Handle to the owner's fire
// function, which takes the lock and calls Claim. A Handle that was cancelled
// or replaced before Claim runs is rejected, so a cancelled alarm can never
// produce its side effect.
package reminder

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/fastygo/tasklist/domain"
)

// MaxDelay caps reminder delays well below time.Duration overflow.
const MaxDelay = 365 * 24 * time.Hour

// Handle identifies one registered alarm.
type Handle struct {
	taskID   int64
	due      time.Time
	timer    Timer
	released bool
}

// TaskID returns the task the alarm belongs to.
func (h *Handle) TaskID() int64 {
	return h.taskID
}

// Due returns the time the alarm was set to fire.
func (h *Handle) Due() time.Time {
	return h.due
}

// Scheduler manages timer lifecycles keyed by task id.
type Scheduler struct {
	clock   Clock
	fire    func(*Handle)
	handles map[int64]*Handle
}

// NewScheduler builds a scheduler. fire is invoked from the timer goroutine
// and must re-enter the owner's logical thread before calling Claim.
func NewScheduler(clock Clock, fire func(*Handle)) *Scheduler {
	if clock == nil {
		clock = SystemClock()
	}
	return &Scheduler{
		clock:   clock,
		fire:    fire,
		handles: make(map[int64]*Handle),
	}
}

// Schedule registers an alarm for taskID, replacing any pending one.
func (s *Scheduler) Schedule(taskID int64, delay time.Duration) (*Handle, error) {
	if delay <= 0 || delay > MaxDelay {
		return nil, domain.ErrInvalidDelay
	}
	s.Cancel(taskID)

	h := &Handle{
		taskID: taskID,
		due:    s.clock.Now().Add(delay),
	}
	h.timer = s.clock.AfterFunc(delay, func() {
		if s.fire != nil {
			s.fire(h)
		}
	})
	s.handles[taskID] = h
	return h, nil
}

// Claim consumes a firing handle. It returns false when the handle was
// cancelled or superseded, in which case the caller must do nothing.
func (s *Scheduler) Claim(h *Handle) bool {
	if h == nil || h.released {
		return false
	}
	if current, ok := s.handles[h.taskID]; !ok || current != h {
		return false
	}
	h.released = true
	delete(s.handles, h.taskID)
	return true
}

// Cancel stops the pending alarm for taskID. It is a no-op without one.
func (s *Scheduler) Cancel(taskID int64) bool {
	h, ok := s.handles[taskID]
	if !ok {
		return false
	}
	h.released = true
	if h.timer != nil {
		h.timer.Stop()
	}
	delete(s.handles, taskID)
	return true
}

// CancelAll cancels the alarms of the given tasks and returns how many were pending.
func (s *Scheduler) CancelAll(taskIDs []int64) int {
	cancelled := 0
	for _, id := range taskIDs {
		if s.Cancel(id) {
			cancelled++
		}
	}
	return cancelled
}

// Stop cancels every pending alarm.
func (s *Scheduler) Stop() int {
	ids := make([]int64, 0, len(s.handles))
	for id := range s.handles {
		ids = append(ids, id)
	}
	return s.CancelAll(ids)
}

// Active reports whether taskID has a pending alarm.
func (s *Scheduler) Active(taskID int64) bool {
	_, ok := s.handles[taskID]
	return ok
}

// Due returns when the pending alarm for taskID fires.
func (s *Scheduler) Due(taskID int64) (time.Time, bool) {
	h, ok := s.handles[taskID]
	if !ok {
		return time.Time{}, false
	}
	return h.due, true
}

// Pending returns the number of registered alarms.
func (s *Scheduler) Pending() int {
	return len(s.handles)
}

// Delay converts a user-supplied number of seconds into a duration.
func Delay(seconds float64) (time.Duration, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return 0, domain.ErrInvalidDelay
	}
	if seconds > MaxDelay.Seconds() {
		return 0, domain.ErrInvalidDelay
	}
	d := time.Duration(seconds * float64(time.Second))
	if d <= 0 {
		return 0, domain.ErrInvalidDelay
	}
	return d, nil
}

// ParseDelay accepts the raw text typed into a reminder prompt.
func ParseDelay(raw string) (time.Duration, error) {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, domain.ErrInvalidDelay
	}
	return Delay(seconds)
}
