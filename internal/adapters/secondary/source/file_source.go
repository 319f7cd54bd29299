// Package source reads raw incident exports from the places an ITSM
// export can live: a file on disk or an HTTP endpoint.
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-insights/internal/core/errors"
	"github.com/lorrc/service-desk-insights/internal/core/ports"
)

// FileSource reads a JSON array export from disk on every fetch.
type FileSource struct {
	path string
}

var _ ports.RawIncidentSource = (*FileSource)(nil)

// NewFileSource creates a source for the export at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name returns "file:" followed by the file's base name.
func (s *FileSource) Name() string {
	return "file:" + filepath.Base(s.path)
}

// FetchIncidents reads and decodes the whole file.
func (s *FileSource) FetchIncidents(ctx context.Context) ([]domain.RawIncidentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrSourceUnavailable, s.Name(), err)
	}

	records, err := domain.DecodeRawIncidents(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrSourceMalformed, s.Name(), err)
	}
	return records, nil
}
