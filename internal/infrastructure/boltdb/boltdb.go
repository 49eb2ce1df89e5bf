package boltdb

import (
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// DefaultBucket holds task snapshots when no bucket is configured.
const DefaultBucket = "tasklist"

// Open initializes the BoltDB file and ensures the bucket exists. The file
// lock is held until Close, so a second process on the same path fails
// after the one second timeout.
func Open(path string, bucket string) (*bolt.DB, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
