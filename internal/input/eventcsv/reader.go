package eventcsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"insiderwatch/pkg/models"
)

// LoadEvents reads activity events from a CSV file. The header must name
// user_id, timestamp, and action columns; a resource column is optional.
// Timestamps are RFC3339. Any malformed row is an error naming its row
// number. A file with only a header yields an empty slice.
func LoadEvents(path string) ([]*models.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("events file %s has no header", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	events := make([]*models.Event, 0, 4096)
	rowNo := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		rowNo++
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", rowNo, err)
		}

		ev, err := eventFromRecord(record, cols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNo, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

type columns struct {
	userID    int
	timestamp int
	action    int
	resource  int
}

func mapColumns(header []string) (columns, error) {
	cols := columns{userID: -1, timestamp: -1, action: -1, resource: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "user_id":
			cols.userID = i
		case "timestamp":
			cols.timestamp = i
		case "action":
			cols.action = i
		case "resource":
			cols.resource = i
		}
	}
	if cols.userID < 0 || cols.timestamp < 0 || cols.action < 0 {
		return cols, fmt.Errorf("header must name user_id, timestamp, and action columns, got %v", header)
	}
	return cols, nil
}

func eventFromRecord(record []string, cols columns) (*models.Event, error) {
	field := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	userID := field(cols.userID)
	if userID == "" {
		return nil, fmt.Errorf("empty user_id")
	}

	rawTS := field(cols.timestamp)
	ts, err := time.Parse(time.RFC3339, rawTS)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp %q: %w", rawTS, err)
	}

	return &models.Event{
		UserID:    userID,
		Timestamp: ts,
		Action:    models.Action(field(cols.action)),
		Resource:  field(cols.resource),
	}, nil
}
