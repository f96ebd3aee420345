package alertjson

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"insiderwatch/internal/logger"
	"insiderwatch/pkg/models"
)

// Writer appends alerts to a JSON lines file, one alert per line.
type Writer struct {
	path    string
	file    *os.File
	encoder *json.Encoder

	mu       sync.Mutex
	written  int
	highRisk int
}

// NewWriter creates a JSONL alert writer, creating parent directories
// as needed.
func NewWriter(path string) (*Writer, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create alert directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create alert file: %w", err)
	}

	logger.Infof("Alert JSON writer initialized: %s", path)
	return &Writer{
		path:    path,
		file:    f,
		encoder: json.NewEncoder(f),
	}, nil
}

// WriteAlerts appends a batch of alerts in the given order.
func (w *Writer) WriteAlerts(alerts []*models.Alert) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, alert := range alerts {
		if err := w.encoder.Encode(alert); err != nil {
			return fmt.Errorf("failed to encode alert for user %s: %w", alert.UserID, err)
		}
		w.written++
		if alert.RiskLevel == models.RiskHigh {
			w.highRisk++
		}
	}
	return nil
}

// Close closes the file and logs a delivery summary.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	logger.Infof("Wrote %d alerts (%d high risk) to %s", w.written, w.highRisk, w.path)
	err := w.file.Close()
	w.file = nil
	return err
}
