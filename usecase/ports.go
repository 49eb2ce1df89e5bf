package usecase

import (
	"context"

	"github.com/fastygo/tasklist/domain"
)

// SnapshotStore abstracts the persistent store adapter so use cases stay storage-agnostic.
type SnapshotStore interface {
	Save(ctx context.Context, tasks []domain.Task) error
	// Load returns false when there is no usable snapshot.
	Load(ctx context.Context) ([]domain.Task, bool)
}

// SeedSource supplies the initial batch of tasks for an empty store.
type SeedSource interface {
	Fetch(ctx context.Context) ([]domain.SeedRecord, error)
}

// Presenter reflects repository state. Both methods are called after the
// repository has released its lock, so implementations may read it back.
type Presenter interface {
	Notify(n domain.Notification)
	Refresh()
}

// Presenters fans calls out to several presenters in order.
type Presenters []Presenter

func (ps Presenters) Notify(n domain.Notification) {
	for _, p := range ps {
		if p != nil {
			p.Notify(n)
		}
	}
}

func (ps Presenters) Refresh() {
	for _, p := range ps {
		if p != nil {
			p.Refresh()
		}
	}
}

type nopPresenter struct{}

func (nopPresenter) Notify(domain.Notification) {}
func (nopPresenter) Refresh()                   {}

// NopPresenter discards every notification.
func NopPresenter() Presenter {
	return nopPresenter{}
}
