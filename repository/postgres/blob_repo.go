package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/tasklist/domain"
	"github.com/fastygo/tasklist/repository"
)

type blobRepository struct {
	pool *pgxpool.Pool
}

// NewBlobRepository returns a Postgres-backed snapshot store using the
// snapshots table.
func NewBlobRepository(pool *pgxpool.Pool) repository.BlobStore {
	return &blobRepository{pool: pool}
}

func (r *blobRepository) Get(ctx context.Context, key string) ([]byte, error) {
	const query = `
	SELECT payload
	FROM snapshots
	WHERE key = $1
	`
	var payload []byte
	if err := r.pool.QueryRow(ctx, query, key).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, err
	}
	return payload, nil
}

func (r *blobRepository) Put(ctx context.Context, key string, value []byte) error {
	const query = `
	INSERT INTO snapshots (key, payload, updated_at)
	VALUES ($1, $2, NOW())
	ON CONFLICT (key) DO UPDATE
	SET payload = EXCLUDED.payload,
		updated_at = NOW()
	`
	_, err := r.pool.Exec(ctx, query, key, value)
	return err
}

func (r *blobRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
