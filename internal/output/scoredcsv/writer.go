package scoredcsv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"insiderwatch/internal/logger"
	"insiderwatch/pkg/models"
)

var header = []string{
	"user_id",
	"anomaly_score",
	"is_outlier",
	"login_time_variance",
	"file_access_count",
	"after_hours_activity",
	"failed_login_attempts",
	"sensitive_data_access",
	"total_actions",
}

// Writer outputs ranked scored users as CSV.
type Writer struct {
	file *os.File
	csv  *csv.Writer
	mu   sync.Mutex
}

// NewWriter creates a CSV writer for scored users and writes the header.
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

	w := &Writer{file: f, csv: csv.NewWriter(f)}
	if err := w.csv.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	logger.Infof("Scored-user CSV writer initialized: %s", path)
	return w, nil
}

// WriteUsers writes a ranked batch of scored users.
func (w *Writer) WriteUsers(users []models.ScoredUser) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range users {
		u := &users[i]
		record := []string{
			u.UserID,
			strconv.FormatFloat(u.AnomalyScore, 'g', -1, 64),
			strconv.FormatBool(u.IsOutlier),
			strconv.FormatFloat(u.LoginTimeVariance, 'g', -1, 64),
			strconv.Itoa(u.FileAccessCount),
			strconv.Itoa(u.AfterHoursActivity),
			strconv.Itoa(u.FailedLoginAttempts),
			strconv.Itoa(u.SensitiveDataAccess),
			strconv.Itoa(u.TotalActions),
		}
		if err := w.csv.Write(record); err != nil {
			return fmt.Errorf("failed to write scored user: %w", err)
		}
	}
	w.csv.Flush()
	return w.csv.Error()
}

// Close flushes and closes the output file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		w.file.Close()
		return err
	}
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}
