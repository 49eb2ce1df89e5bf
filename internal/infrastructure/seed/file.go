package seed

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fastygo/tasklist/domain"
	"github.com/fastygo/tasklist/usecase"
)

// FileSource reads seed tasks from a local YAML (or JSON) file holding a
// list of {id, title, completed}.
type FileSource struct {
	path  string
	limit int
}

func NewFileSource(path string, limit int) *FileSource {
	if limit <= 0 {
		limit = 5
	}
	return &FileSource{path: path, limit: limit}
}

func (s *FileSource) Fetch(ctx context.Context) ([]domain.SeedRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NetworkError("read seed file", err)
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, domain.NetworkError("read seed file", err)
	}

	var records []domain.SeedRecord
	if err := yaml.Unmarshal(raw, &records); err != nil {
		return nil, domain.NetworkError("parse seed file", fmt.Errorf("%s: %w", s.path, err))
	}
	if len(records) > s.limit {
		records = records[:s.limit]
	}
	return records, nil
}

var _ usecase.SeedSource = (*FileSource)(nil)
