package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/tasklist/domain"
	"github.com/fastygo/tasklist/repository"
)

func newRepo(t *testing.T) (repository.BlobStore, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewBlobRepository(client), srv
}

func TestBlobRepository_MissingKey(t *testing.T) {
	repo, _ := newRepo(t)

	_, err := repo.Get(context.Background(), "todoList")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestBlobRepository_PutUsesPrefixAndNoTTL(t *testing.T) {
	repo, srv := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "todoList", []byte(`[]`)))

	raw, err := srv.Get("tasklist:todoList")
	require.NoError(t, err)
	assert.Equal(t, `[]`, raw)
	assert.Zero(t, srv.TTL("tasklist:todoList"))

	got, err := repo.Get(ctx, "todoList")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))
}

func TestBlobRepository_SnapshotRoundTrip(t *testing.T) {
	repo, _ := newRepo(t)
	snaps := repository.NewSnapshots(repo, "", nil)
	tasks := []domain.Task{{ID: 7, Text: "Call mom", ReminderActive: true}}

	require.NoError(t, snaps.Save(context.Background(), tasks))
	loaded, ok := snaps.Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, []domain.Task{{ID: 7, Text: "Call mom"}}, loaded)
}

func TestBlobRepository_ServerDown(t *testing.T) {
	repo, srv := newRepo(t)
	srv.Close()

	err := repository.NewSnapshots(repo, "", nil).Save(context.Background(), []domain.Task{{ID: 1, Text: "x"}})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeStorage))
	assert.Error(t, repo.Ping(context.Background()))
}
