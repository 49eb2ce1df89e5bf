package redis

import (
	"context"
	"errors"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/tasklist/domain"
	"github.com/fastygo/tasklist/repository"
)

type blobRepository struct {
	client *redislib.Client
	prefix string
}

// NewBlobRepository creates a Redis-backed snapshot store. Keys are
// namespaced with "tasklist:" and never expire.
func NewBlobRepository(client *redislib.Client) repository.BlobStore {
	return &blobRepository{
		client: client,
		prefix: "tasklist:",
	}
}

func (r *blobRepository) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, err
	}
	return value, nil
}

func (r *blobRepository) Put(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.key(key), value, 0).Err()
}

func (r *blobRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *blobRepository) key(key string) string {
	return r.prefix + key
}
