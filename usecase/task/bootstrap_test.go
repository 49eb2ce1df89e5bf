package task

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/tasklist/domain"
)

type stubSource struct {
	records []domain.SeedRecord
	err     error
	calls   int
}

func (s *stubSource) Fetch(context.Context) ([]domain.SeedRecord, error) {
	s.calls++
	return s.records, s.err
}

func TestBootstrap_RestoresSnapshotWithoutReminders(t *testing.T) {
	f := newFixture(t)
	f.store.stored = []domain.Task{
		{ID: 10, Text: "restored", ReminderActive: true},
		{ID: 11, Text: "done", Completed: true},
	}
	f.store.hasData = true
	src := &stubSource{}

	require.NoError(t, f.uc.Bootstrap(context.Background(), src))

	assert.Zero(t, src.calls)
	assert.Equal(t, []domain.Task{
		{ID: 10, Text: "restored"},
		{ID: 11, Text: "done", Completed: true},
	}, f.uc.List(domain.FilterAll))
	assert.Zero(t, f.uc.PendingReminders())
	assert.Zero(t, f.store.saveCount())
	assert.Equal(t, 1, f.rec.refreshes)
}

func TestBootstrap_SeedsWhenStoreIsEmpty(t *testing.T) {
	for name, stored := range map[string]struct {
		tasks   []domain.Task
		present bool
	}{
		"absent":      {nil, false},
		"empty array": {[]domain.Task{}, true},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.store.stored, f.store.hasData = stored.tasks, stored.present
			src := &stubSource{records: []domain.SeedRecord{
				{ID: 1, Title: "delectus aut autem", Completed: false},
				{ID: 2, Title: "quis ut nam facilis", Completed: true},
			}}

			require.NoError(t, f.uc.Bootstrap(context.Background(), src))

			want := []domain.Task{
				{ID: 1, Text: "delectus aut autem"},
				{ID: 2, Text: "quis ut nam facilis", Completed: true},
			}
			assert.Equal(t, want, f.uc.List(domain.FilterAll))
			assert.Equal(t, want, f.store.lastSaved())
		})
	}
}

func TestBootstrap_SeedNormalization(t *testing.T) {
	f := newFixture(t)
	src := &stubSource{records: []domain.SeedRecord{
		{ID: 1, Title: "first"},
		{ID: 1, Title: "duplicate id"},
		{ID: 0, Title: "no id"},
		{ID: 3, Title: "   "},
	}}

	require.NoError(t, f.uc.Bootstrap(context.Background(), src))

	tasks := f.uc.List(domain.FilterAll)
	require.Len(t, tasks, 3)
	seen := map[int64]bool{}
	for _, task := range tasks {
		assert.False(t, seen[task.ID])
		assert.Positive(t, task.ID)
		seen[task.ID] = true
	}
	assert.Equal(t, "duplicate id", tasks[1].Text)
}

func TestBootstrap_NetworkFailureLeavesRepositoryUsable(t *testing.T) {
	f := newFixture(t)
	src := &stubSource{err: errors.New("dial tcp: connection refused")}

	err := f.uc.Bootstrap(context.Background(), src)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNetwork))
	assert.Equal(t, []domain.NotificationKind{domain.NotifyLoadError}, f.rec.kinds())
	assert.Zero(t, f.uc.Count())

	_, err = f.uc.Create(context.Background(), "still works")
	require.NoError(t, err)
	assert.Equal(t, 1, f.uc.Count())
}

func TestBootstrap_KeepsTasksCreatedBeforeSeeding(t *testing.T) {
	f := newFixture(t)
	early, err := f.uc.Create(context.Background(), "early bird")
	require.NoError(t, err)
	src := &stubSource{records: []domain.SeedRecord{{ID: early.ID, Title: "seeded"}}}

	require.NoError(t, f.uc.Bootstrap(context.Background(), src))

	tasks := f.uc.List(domain.FilterAll)
	require.Len(t, tasks, 2)
	assert.Equal(t, "seeded", tasks[0].Text)
	assert.NotEqual(t, early.ID, tasks[0].ID)
	assert.Equal(t, early, tasks[1])
}

func TestBootstrap_WithoutSource(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.uc.Bootstrap(context.Background(), nil))
	assert.Zero(t, f.uc.Count())
	assert.Equal(t, 1, f.rec.refreshes)
}
