package alerthttp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"insiderwatch/internal/logger"
	"insiderwatch/pkg/models"
)

const userAgent = "insiderwatch"

// Config configures the webhook writer.
type Config struct {
	URL     string
	Timeout time.Duration
	Headers map[string]string
}

// Writer delivers alert batches to an HTTP endpoint.
type Writer struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// NewWriter creates a webhook writer. A zero timeout means 5 seconds.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webhook URL is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Writer{
		url:     cfg.URL,
		headers: cfg.Headers,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// WriteAlerts posts the batch as a single JSON array. An empty batch
// sends nothing. A response status of 300 or above is an error.
func (w *Writer) WriteAlerts(alerts []*models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	body, err := json.Marshal(alerts)
	if err != nil {
		return fmt.Errorf("failed to marshal %d alerts: %w", len(alerts), err)
	}
	logger.Debugf("Posting %d alerts to %s", len(alerts), w.url)

	return w.post(body)
}

func (w *Writer) post(body []byte) error {
	req, err := http.NewRequest(http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook rejected alerts with status %s", resp.Status)
	}
	return nil
}

// Close releases idle connections.
func (w *Writer) Close() error {
	w.client.CloseIdleConnections()
	return nil
}
