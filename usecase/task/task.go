package task

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/tasklist/domain"
	"github.com/fastygo/tasklist/usecase"
	"github.com/fastygo/tasklist/usecase/reminder"
)

var errStaleReminder = errors.New("stale reminder")

// Option customises a UseCase.
type Option func(*UseCase)

// WithClock replaces the system clock used for ids and reminders.
func WithClock(clock reminder.Clock) Option {
	return func(uc *UseCase) {
		if clock != nil {
			uc.clock = clock
		}
	}
}

// WithPersistTimeout bounds snapshot writes triggered by reminder firings.
func WithPersistTimeout(d time.Duration) Option {
	return func(uc *UseCase) {
		if d > 0 {
			uc.persistTimeout = d
		}
	}
}

// UseCase is the in-memory task repository and the single source of truth
// for a session. Its mutex is the session's logical thread: every mutation,
// snapshot write and reminder firing happens while holding it, and
// presenters are called only after it has been released.
type UseCase struct {
	store          usecase.SnapshotStore
	presenter      usecase.Presenter
	logger         *zap.Logger
	clock          reminder.Clock
	persistTimeout time.Duration

	mu        sync.Mutex
	tasks     []domain.Task
	ids       map[int64]struct{}
	lastID    int64
	reminders *reminder.Scheduler
}

// effects collects what a locked section wants done once the lock is released.
type effects struct {
	dirty  bool
	render bool
	notes  []domain.Notification
}

func (fx *effects) notify(n domain.Notification) {
	fx.notes = append(fx.notes, n)
}

func New(store usecase.SnapshotStore, presenter usecase.Presenter, logger *zap.Logger, opts ...Option) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if presenter == nil {
		presenter = usecase.NopPresenter()
	}
	uc := &UseCase{
		store:          store,
		presenter:      presenter,
		logger:         logger,
		clock:          reminder.SystemClock(),
		persistTimeout: 5 * time.Second,
		ids:            make(map[int64]struct{}),
	}
	for _, opt := range opts {
		opt(uc)
	}
	uc.reminders = reminder.NewScheduler(uc.clock, uc.fire)
	return uc
}

// Create appends a task. A storage failure is returned together with the
// created task, which stays in memory.
func (uc *UseCase) Create(ctx context.Context, text string) (domain.Task, error) {
	text = domain.NormalizeText(text)
	if text == "" {
		return domain.Task{}, domain.ErrEmptyText
	}

	var created domain.Task
	err := uc.apply(ctx, "create", func(fx *effects) error {
		created = domain.Task{ID: uc.nextIDLocked(), Text: text}
		uc.tasks = append(uc.tasks, created)
		uc.ids[created.ID] = struct{}{}
		fx.dirty = true
		return nil
	})
	return created, err
}

// ToggleComplete flips completion. Completing a task cancels its reminder.
func (uc *UseCase) ToggleComplete(ctx context.Context, id int64) (domain.Task, error) {
	var updated domain.Task
	err := uc.apply(ctx, "toggle", func(fx *effects) error {
		t := uc.findLocked(id)
		if t == nil {
			return domain.ErrTaskNotFound
		}
		t.Completed = !t.Completed
		if t.Completed {
			if uc.reminders.Cancel(id) {
				uc.logger.Debug("reminder cancelled on completion", zap.Int64("task_id", id))
			}
			t.ReminderActive = false
		}
		updated = *t
		fx.dirty = true
		return nil
	})
	return updated, err
}

// Delete cancels the task's reminder and removes it, keeping the order of the rest.
func (uc *UseCase) Delete(ctx context.Context, id int64) error {
	return uc.apply(ctx, "delete", func(fx *effects) error {
		idx := uc.indexLocked(id)
		if idx < 0 {
			return domain.ErrTaskNotFound
		}
		uc.reminders.Cancel(id)
		uc.tasks = slices.Delete(uc.tasks, idx, idx+1)
		delete(uc.ids, id)
		fx.dirty = true
		return nil
	})
}

// DeleteAll clears the collection and returns how many tasks were removed.
// Callers are expected to have confirmed the action with the user. On an
// empty collection nothing is written and a nothing-to-delete notification
// is emitted instead.
func (uc *UseCase) DeleteAll(ctx context.Context) (int, error) {
	removed := 0
	err := uc.apply(ctx, "delete_all", func(fx *effects) error {
		if len(uc.tasks) == 0 {
			fx.notify(domain.Notification{
				Kind:    domain.NotifyNothingToDelete,
				Message: "nothing to delete",
				At:      uc.clock.Now(),
			})
			return nil
		}
		ids := make([]int64, 0, len(uc.tasks))
		for _, t := range uc.tasks {
			ids = append(ids, t.ID)
		}
		cancelled := uc.reminders.CancelAll(ids)
		removed = len(uc.tasks)
		uc.tasks = nil
		clear(uc.ids)
		uc.logger.Info("all tasks deleted", zap.Int("count", removed), zap.Int("reminders_cancelled", cancelled))
		fx.dirty = true
		return nil
	})
	return removed, err
}

// SetReminder arms a one-shot reminder, replacing any pending one.
func (uc *UseCase) SetReminder(ctx context.Context, id int64, delay time.Duration) (domain.Task, error) {
	var updated domain.Task
	err := uc.apply(ctx, "set_reminder", func(fx *effects) error {
		t := uc.findLocked(id)
		if t == nil {
			return domain.ErrTaskNotFound
		}
		if t.Completed {
			return domain.ErrReminderOnCompleted
		}
		h, err := uc.reminders.Schedule(id, delay)
		if err != nil {
			return err
		}
		t.ReminderActive = true
		updated = *t
		uc.logger.Debug("reminder scheduled", zap.Int64("task_id", id), zap.Time("due", h.Due()))
		fx.dirty = true
		return nil
	})
	return updated, err
}

// CancelReminder drops a pending reminder. Without one it is a no-op.
func (uc *UseCase) CancelReminder(ctx context.Context, id int64) (domain.Task, error) {
	var updated domain.Task
	err := uc.apply(ctx, "cancel_reminder", func(fx *effects) error {
		t := uc.findLocked(id)
		if t == nil {
			return domain.ErrTaskNotFound
		}
		if uc.reminders.Cancel(id) {
			t.ReminderActive = false
			fx.dirty = true
		}
		updated = *t
		return nil
	})
	return updated, err
}

// Find looks a task up without side effects.
func (uc *UseCase) Find(id int64) (domain.Task, bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if t := uc.findLocked(id); t != nil {
		return *t, true
	}
	return domain.Task{}, false
}

// List returns copies of the matching tasks in insertion order.
func (uc *UseCase) List(filter domain.Filter) []domain.Task {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	out := make([]domain.Task, 0, len(uc.tasks))
	for _, t := range uc.tasks {
		if filter.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Count returns the number of tasks held.
func (uc *UseCase) Count() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return len(uc.tasks)
}

// PendingReminders returns the number of armed reminders.
func (uc *UseCase) PendingReminders() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.reminders.Pending()
}

// ReminderDue reports when the task's pending reminder fires.
func (uc *UseCase) ReminderDue(id int64) (time.Time, bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.reminders.Due(id)
}

// Close cancels every pending reminder. Used at session end.
func (uc *UseCase) Close() {
	uc.mu.Lock()
	n := uc.reminders.Stop()
	for i := range uc.tasks {
		uc.tasks[i].ReminderActive = false
	}
	uc.mu.Unlock()
	if n > 0 {
		uc.logger.Info("pending reminders cancelled", zap.Int("count", n))
	}
}

// fire runs on a timer goroutine and re-enters the logical thread.
func (uc *UseCase) fire(h *reminder.Handle) {
	ctx, cancel := context.WithTimeout(context.Background(), uc.persistTimeout)
	defer cancel()

	err := uc.apply(ctx, "reminder", func(fx *effects) error {
		if !uc.reminders.Claim(h) {
			return errStaleReminder
		}
		t := uc.findLocked(h.TaskID())
		if t == nil {
			return errStaleReminder
		}
		t.ReminderActive = false
		fx.dirty = true
		fx.notify(domain.Notification{
			Kind:    domain.NotifyReminder,
			TaskID:  t.ID,
			Message: fmt.Sprintf("Reminder: %q", t.Text),
			At:      uc.clock.Now(),
		})
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, errStaleReminder):
		uc.logger.Debug("ignoring stale reminder", zap.Int64("task_id", h.TaskID()))
	default:
		uc.presenter.Notify(domain.Notification{
			Kind:    domain.NotifyStorageError,
			TaskID:  h.TaskID(),
			Message: err.Error(),
			At:      uc.clock.Now(),
		})
	}
}

// apply runs fn on the logical thread, persists when fn marked the state
// dirty and then hands notifications and a re-render request to presenters.
func (uc *UseCase) apply(ctx context.Context, op string, fn func(fx *effects) error) error {
	fx := &effects{}

	uc.mu.Lock()
	err := fn(fx)
	var saveErr error
	if err == nil && fx.dirty {
		saveErr = uc.persistLocked(ctx, op)
	}
	uc.mu.Unlock()

	for _, n := range fx.notes {
		uc.presenter.Notify(n)
	}
	if err == nil && (fx.dirty || fx.render) {
		uc.presenter.Refresh()
	}
	if err != nil {
		return err
	}
	return saveErr
}

func (uc *UseCase) persistLocked(ctx context.Context, op string) error {
	if uc.store == nil {
		return nil
	}
	snapshot := make([]domain.Task, len(uc.tasks))
	copy(snapshot, uc.tasks)

	if err := uc.store.Save(ctx, snapshot); err != nil {
		uc.logger.Warn("snapshot write failed, keeping in-memory state",
			zap.String("operation", op),
			zap.Int("tasks", len(snapshot)),
			zap.Error(err))
		if domain.IsDomainError(err, domain.ErrCodeStorage) {
			return err
		}
		return domain.StorageError("persist tasks", err)
	}
	return nil
}

func (uc *UseCase) nextIDLocked() int64 {
	id := uc.clock.Now().UnixMilli()
	if id <= uc.lastID {
		id = uc.lastID + 1
	}
	for {
		if _, taken := uc.ids[id]; !taken {
			break
		}
		id++
	}
	uc.lastID = id
	return id
}

func (uc *UseCase) indexLocked(id int64) int {
	return slices.IndexFunc(uc.tasks, func(t domain.Task) bool { return t.ID == id })
}

func (uc *UseCase) findLocked(id int64) *domain.Task {
	if idx := uc.indexLocked(id); idx >= 0 {
		return &uc.tasks[idx]
	}
	return nil
}
