package source

import (
	"context"
	"log/slog"
	"os"

	"github.com/verdantiq/analytics/internal/domain"
	"github.com/verdantiq/analytics/internal/ingest"
)

// FileReader replays a local NDJSON or JSON-array event file, the last
// live-ish fallback before synthetic data. Read or parse failures yield an
// empty event set.
type FileReader struct {
	path       string
	normalizer *ingest.Normalizer
	logger     *slog.Logger
}

// NewFileReader builds a reader, or nil when no path is configured.
func NewFileReader(path string, normalizer *ingest.Normalizer, logger *slog.Logger) *FileReader {
	if path == "" {
		return nil
	}
	if logger != nil {
		logger = logger.With("component", "file_reader", "path", path)
	}
	return &FileReader{path: path, normalizer: normalizer, logger: logger}
}

// Name identifies the adapter in health output.
func (f *FileReader) Name() string { return "file" }

// Fetch reads and normalizes the replay file. The file may be appended to
// between calls, so it is re-read on every cache miss.
func (f *FileReader) Fetch(_ context.Context) ([]domain.CanonicalEvent, bool) {
	if f == nil {
		return nil, false
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if f.logger != nil {
			f.logger.Warn("replay file read failed", "error", err)
		}
		return nil, false
	}

	var events []domain.CanonicalEvent
	for _, raw := range ingest.DecodeText(data) {
		if event, ok := f.normalizer.Normalize(raw); ok {
			events = append(events, event)
		}
	}
	return events, true
}
