package features

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"insiderwatch/internal/logger"
	"insiderwatch/pkg/models"
)

// Window is a working-hours window in minutes of day. An event at exactly
// Start or End is inside the window.
type Window struct {
	Start int
	End   int
}

// DefaultWindow is the 09:00-17:00 working day.
func DefaultWindow() Window {
	return Window{Start: 9 * 60, End: 17 * 60}
}

// ParseWindow parses HH:MM start and end clock strings into a Window.
func ParseWindow(start, end string) (Window, error) {
	s, err := parseClock(start)
	if err != nil {
		return Window{}, fmt.Errorf("working hours start: %w", err)
	}
	e, err := parseClock(end)
	if err != nil {
		return Window{}, fmt.Errorf("working hours end: %w", err)
	}
	return Window{Start: s, End: e}, nil
}

func parseClock(v string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(v), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", v)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in clock value %q", v)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in clock value %q", v)
	}
	return h*60 + m, nil
}

// AfterHours reports whether t falls outside the window.
func (w Window) AfterHours(t time.Time) bool {
	min := t.Hour()*60 + t.Minute()
	return min < w.Start || min > w.End
}

// Extractor aggregates raw activity events into per-user feature vectors.
type Extractor struct {
	window Window
}

// NewExtractor creates an extractor. A zero window falls back to the
// default working day.
func NewExtractor(w Window) *Extractor {
	if w == (Window{}) {
		w = DefaultWindow()
	}
	return &Extractor{window: w}
}

type userAccum struct {
	loginHours []float64
	fileAccess int
	afterHours int
	failed     int
	sensitive  int
	total      int
}

// Extract builds one FeatureVector per distinct user, sorted by user id,
// so the result does not depend on event ordering. Events without a user
// id or timestamp are skipped. An empty input yields an empty, non-nil
// result.
func (e *Extractor) Extract(events []*models.Event) []models.FeatureVector {
	accums := make(map[string]*userAccum, 64)
	skipped := 0

	for _, ev := range events {
		if ev == nil || ev.UserID == "" || ev.Timestamp.IsZero() {
			skipped++
			continue
		}
		acc := accums[ev.UserID]
		if acc == nil {
			acc = &userAccum{}
			accums[ev.UserID] = acc
		}
		acc.total++
		if e.window.AfterHours(ev.Timestamp) {
			acc.afterHours++
		}
		switch ev.Action {
		case models.ActionLogin:
			acc.loginHours = append(acc.loginHours, float64(ev.Timestamp.Hour()))
		case models.ActionFileAccess:
			acc.fileAccess++
		case models.ActionFailedLogin:
			acc.failed++
		case models.ActionSensitiveDataAccess:
			acc.sensitive++
		}
	}

	if skipped > 0 {
		logger.Debugf("Skipped %d events without user id or timestamp", skipped)
	}

	ids := make([]string, 0, len(accums))
	for id := range accums {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]models.FeatureVector, 0, len(ids))
	for _, id := range ids {
		acc := accums[id]
		out = append(out, models.FeatureVector{
			UserID:              id,
			LoginTimeVariance:   sampleVariance(acc.loginHours),
			FileAccessCount:     acc.fileAccess,
			AfterHoursActivity:  acc.afterHours,
			FailedLoginAttempts: acc.failed,
			SensitiveDataAccess: acc.sensitive,
			TotalActions:        acc.total,
		})
	}
	return out
}

// sampleVariance is the unbiased sample variance (divisor n-1). Fewer
// than two samples mean zero.
func sampleVariance(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(n)
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return ss / float64(n-1)
}
