package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fastygo/tasklist/domain"
)

type mapBlobs struct {
	mu     sync.Mutex
	values map[string][]byte
	getErr error
	putErr error
}

func newMapBlobs() *mapBlobs {
	return &mapBlobs{values: map[string][]byte{}}
}

func (m *mapBlobs) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.values[key]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	return v, nil
}

func (m *mapBlobs) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *mapBlobs) Ping(context.Context) error { return nil }

func TestSnapshots_RoundTripNormalizesReminders(t *testing.T) {
	blobs := newMapBlobs()
	snaps := NewSnapshots(blobs, "", nil)
	ctx := context.Background()

	original := []domain.Task{
		{ID: 1712000000000, Text: "Buy milk"},
		{ID: 1712000000001, Text: "Walk dog", Completed: true},
		{ID: 1712000000002, Text: "Call mom", ReminderActive: true},
	}
	require.NoError(t, snaps.Save(ctx, original))

	raw := string(blobs.values[DefaultSnapshotKey])
	assert.NotContains(t, raw, `"reminderActive":true`)

	loaded, ok := snaps.Load(ctx)
	require.True(t, ok)
	require.Len(t, loaded, len(original))
	for i := range original {
		assert.Equal(t, original[i].ID, loaded[i].ID)
		assert.Equal(t, original[i].Text, loaded[i].Text)
		assert.Equal(t, original[i].Completed, loaded[i].Completed)
		assert.False(t, loaded[i].ReminderActive)
	}
	assert.True(t, original[2].ReminderActive, "caller's slice is untouched")
}

func TestSnapshots_EmptyCollectionIsEmptyArray(t *testing.T) {
	blobs := newMapBlobs()
	snaps := NewSnapshots(blobs, "tasks", nil)

	require.NoError(t, snaps.Save(context.Background(), nil))
	assert.JSONEq(t, `[]`, string(blobs.values["tasks"]))

	loaded, ok := snaps.Load(context.Background())
	assert.True(t, ok)
	assert.Empty(t, loaded)
}

func TestSnapshots_LoadsLegacyReminderFlagAsInactive(t *testing.T) {
	blobs := newMapBlobs()
	blobs.values[DefaultSnapshotKey] = []byte(`[{"id":5,"text":"stale","completed":false,"reminderActive":true}]`)

	loaded, ok := NewSnapshots(blobs, "", nil).Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, []domain.Task{{ID: 5, Text: "stale"}}, loaded)
}

func TestSnapshots_MissingKeyIsAbsent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	snaps := NewSnapshots(newMapBlobs(), "", zap.New(core))

	loaded, ok := snaps.Load(context.Background())
	assert.False(t, ok)
	assert.Nil(t, loaded)
	assert.Zero(t, logs.Len())
}

func TestSnapshots_CorruptOrUnreadableIsAbsentAndLogged(t *testing.T) {
	for name, setup := range map[string]func(*mapBlobs){
		"corrupt": func(m *mapBlobs) { m.values[DefaultSnapshotKey] = []byte(`{not json`) },
		"object":  func(m *mapBlobs) { m.values[DefaultSnapshotKey] = []byte(`{"id":1}`) },
		"read":    func(m *mapBlobs) { m.getErr = errors.New("io timeout") },
	} {
		t.Run(name, func(t *testing.T) {
			blobs := newMapBlobs()
			setup(blobs)
			core, logs := observer.New(zapcore.DebugLevel)

			loaded, ok := NewSnapshots(blobs, "", zap.New(core)).Load(context.Background())
			assert.False(t, ok)
			assert.Nil(t, loaded)
			assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
		})
	}
}

func TestSnapshots_JSONNullIsAbsent(t *testing.T) {
	blobs := newMapBlobs()
	blobs.values[DefaultSnapshotKey] = []byte(`null`)

	_, ok := NewSnapshots(blobs, "", nil).Load(context.Background())
	assert.False(t, ok)
}

func TestSnapshots_WriteFailureIsStorageError(t *testing.T) {
	blobs := newMapBlobs()
	blobs.putErr = errors.New("quota exceeded")

	err := NewSnapshots(blobs, "", nil).Save(context.Background(), []domain.Task{{ID: 1, Text: "x"}})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeStorage))
	assert.Contains(t, err.Error(), "quota exceeded")
}
