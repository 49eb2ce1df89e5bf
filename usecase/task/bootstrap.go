package task

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/tasklist/domain"
	"github.com/fastygo/tasklist/usecase"
)

// Bootstrap fills the repository at startup. A stored snapshot with at least
// one task is restored; otherwise the seed source is consulted and its
// records are persisted. A seed failure is reported to presenters and
// returned, but the repository stays usable.
func (uc *UseCase) Bootstrap(ctx context.Context, source usecase.SeedSource) error {
	if uc.store != nil {
		if stored, ok := uc.store.Load(ctx); ok && len(stored) > 0 {
			restored := 0
			err := uc.apply(ctx, "restore", func(fx *effects) error {
				restored = uc.mergeLocked(stored)
				fx.render = true
				return nil
			})
			uc.logger.Info("tasks restored from snapshot", zap.Int("count", restored))
			return err
		}
	}

	if source == nil {
		uc.presenter.Refresh()
		return nil
	}

	records, err := source.Fetch(ctx)
	if err != nil {
		if !domain.IsDomainError(err, domain.ErrCodeNetwork) {
			err = domain.NetworkError("fetch seed tasks", err)
		}
		uc.logger.Error("seed fetch failed, starting empty", zap.Error(err))
		uc.presenter.Notify(domain.Notification{
			Kind:    domain.NotifyLoadError,
			Message: err.Error(),
			At:      uc.clock.Now(),
		})
		uc.presenter.Refresh()
		return err
	}

	seeded := 0
	err = uc.apply(ctx, "seed", func(fx *effects) error {
		seeded = uc.mergeLocked(tasksFromSeeds(records))
		fx.dirty = true
		return nil
	})
	uc.logger.Info("tasks seeded", zap.Int("count", seeded))
	return err
}

// mergeLocked places incoming tasks ahead of anything created meanwhile.
// Empty texts are dropped and missing or colliding ids are re-issued.
// Reminder state never survives a restore.
func (uc *UseCase) mergeLocked(incoming []domain.Task) int {
	merged := make([]domain.Task, 0, len(incoming)+len(uc.tasks))
	for _, t := range incoming {
		t.Text = domain.NormalizeText(t.Text)
		if t.Text == "" {
			uc.logger.Warn("dropping task without text", zap.Int64("task_id", t.ID))
			continue
		}
		if _, taken := uc.ids[t.ID]; taken || t.ID <= 0 {
			t.ID = uc.nextIDLocked()
		}
		t.ReminderActive = false
		uc.ids[t.ID] = struct{}{}
		merged = append(merged, t)
	}
	added := len(merged)
	uc.tasks = append(merged, uc.tasks...)
	return added
}

func tasksFromSeeds(records []domain.SeedRecord) []domain.Task {
	tasks := make([]domain.Task, 0, len(records))
	for _, r := range records {
		tasks = append(tasks, domain.Task{
			ID:        r.ID,
			Text:      r.Title,
			Completed: r.Completed,
		})
	}
	return tasks
}
