package bolt

import (
	"context"

	bbolt "go.etcd.io/bbolt"

	"github.com/fastygo/tasklist/domain"
	"github.com/fastygo/tasklist/internal/infrastructure/boltdb"
	"github.com/fastygo/tasklist/repository"
)

type blobRepository struct {
	db     *bbolt.DB
	bucket []byte
}

// NewBlobRepository stores snapshot blobs in one bucket of an open Bolt file.
func NewBlobRepository(db *bbolt.DB, bucket string) repository.BlobStore {
	if bucket == "" {
		bucket = boltdb.DefaultBucket
	}
	return &blobRepository{db: db, bucket: []byte(bucket)}
}

func (r *blobRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.db == nil {
		return nil, bbolt.ErrDatabaseNotOpen
	}
	var value []byte
	err := r.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(r.bucket)
		if b == nil {
			return domain.ErrSnapshotNotFound
		}
		v := b.Get([]byte(key))
		if v == nil {
			return domain.ErrSnapshotNotFound
		}
		// v is only valid inside the transaction.
		value = append([]byte(nil), v...)
		return nil
	})
	return value, err
}

func (r *blobRepository) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.db == nil {
		return bbolt.ErrDatabaseNotOpen
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(r.bucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), value)
	})
}

func (r *blobRepository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.db == nil {
		return bbolt.ErrDatabaseNotOpen
	}
	return r.db.View(func(*bbolt.Tx) error { return nil })
}
