package crime

import (
	"context"
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"phillysafe/pkg/models"
)

// FileSource serves incidents from a JSON fixture on disk, the same format
// cmd/export-mirror writes.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Name() string { return "file:" + s.Path }

func (s *FileSource) FetchIncidents(ctx context.Context) ([]models.RawIncident, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var incidents []models.RawIncident
	if err := json.Unmarshal(data, &incidents); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", s.Path, err)
	}
	return incidents, nil
}
