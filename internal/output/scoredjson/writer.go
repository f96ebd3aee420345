package scoredjson

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"insiderwatch/internal/logger"
	"insiderwatch/pkg/models"
)

// Writer outputs ranked scored users to a JSON lines file.
type Writer struct {
	file    *os.File
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewWriter creates a JSONL writer for scored users.
func NewWriter(path string) (*Writer, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	logger.Infof("Scored-user JSON writer initialized: %s", path)
	return &Writer{
		file:    f,
		encoder: json.NewEncoder(f),
	}, nil
}

// WriteUsers writes a ranked batch of scored users.
func (w *Writer) WriteUsers(users []models.ScoredUser) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range users {
		if err := w.encoder.Encode(&users[i]); err != nil {
			return fmt.Errorf("failed to encode scored user: %w", err)
		}
	}
	return nil
}

// Close closes the output file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file != nil {
		return w.file.Close()
	}
	return nil
}
