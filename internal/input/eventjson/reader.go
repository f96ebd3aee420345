package eventjson

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"insiderwatch/pkg/models"
)

// LoadEvents reads activity events from a JSON lines file, one event per
// line. Blank lines are skipped; a malformed line is an error naming its
// line number, so a bad batch never produces partial results. An empty
// file yields an empty slice.
func LoadEvents(path string) ([]*models.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	events := make([]*models.Event, 0, 4096)
	s := bufio.NewScanner(f)
	buf := make([]byte, 0, 1024*1024)
	s.Buffer(buf, 8*1024*1024)

	lineNo := 0
	for s.Scan() {
		lineNo++
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		var ev models.Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return nil, fmt.Errorf("parse event at line %d: %w", lineNo, err)
		}
		if ev.UserID == "" {
			return nil, fmt.Errorf("event at line %d has no user_id", lineNo)
		}
		if ev.Timestamp.IsZero() {
			return nil, fmt.Errorf("event at line %d has no timestamp", lineNo)
		}
		events = append(events, &ev)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan events file: %w", err)
	}
	return events, nil
}
