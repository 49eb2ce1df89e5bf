package repository

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/fastygo/tasklist/domain"
)

// DefaultSnapshotKey is the fixed key the task collection is stored under.
const DefaultSnapshotKey = "todoList"

// BlobStore is a backing key-value store holding opaque values.
// Get returns domain.ErrSnapshotNotFound when the key has no value.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
}

// Snapshots serializes the whole task collection under one key.
type Snapshots struct {
	blobs  BlobStore
	key    string
	logger *zap.Logger
}

// NewSnapshots wraps a BlobStore. An empty key falls back to DefaultSnapshotKey.
func NewSnapshots(blobs BlobStore, key string, logger *zap.Logger) *Snapshots {
	if key == "" {
		key = DefaultSnapshotKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Snapshots{blobs: blobs, key: key, logger: logger}
}

// Save overwrites the stored snapshot.
func (s *Snapshots) Save(ctx context.Context, tasks []domain.Task) error {
	payload, err := EncodeSnapshot(tasks)
	if err != nil {
		return domain.StorageError("encode snapshot", err)
	}
	if err := s.blobs.Put(ctx, s.key, payload); err != nil {
		return domain.StorageError("write snapshot", err)
	}
	return nil
}

// Load reads the stored snapshot. Missing, unreadable and corrupt values all
// come back as "no snapshot"; the latter two are logged.
func (s *Snapshots) Load(ctx context.Context) ([]domain.Task, bool) {
	raw, err := s.blobs.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, domain.ErrSnapshotNotFound) {
			s.logger.Error("snapshot read failed, starting empty",
				zap.String("key", s.key),
				zap.Error(domain.StorageError("read snapshot", err)))
		}
		return nil, false
	}

	tasks, err := DecodeSnapshot(raw)
	if err != nil {
		s.logger.Error("snapshot is corrupt, starting empty",
			zap.String("key", s.key),
			zap.Int("bytes", len(raw)),
			zap.Error(domain.StorageError("decode snapshot", err)))
		return nil, false
	}
	if tasks == nil {
		return nil, false
	}
	return tasks, true
}

// Ping checks the backing store.
func (s *Snapshots) Ping(ctx context.Context) error {
	return s.blobs.Ping(ctx)
}

// EncodeSnapshot renders tasks as a JSON array with every reminder flag
// cleared. An empty collection encodes as [].
func EncodeSnapshot(tasks []domain.Task) ([]byte, error) {
	out := make([]domain.Task, len(tasks))
	for i, t := range tasks {
		t.ReminderActive = false
		out[i] = t
	}
	return json.Marshal(out)
}

// DecodeSnapshot parses a stored snapshot. A JSON null yields nil.
func DecodeSnapshot(raw []byte) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		return nil, err
	}
	for i := range tasks {
		tasks[i].ReminderActive = false
	}
	return tasks, nil
}
