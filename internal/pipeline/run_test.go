package pipeline

import (
	"errors"
	"testing"
	"time"

	"insiderwatch/internal/alerts"
	"insiderwatch/internal/detector"
	"insiderwatch/pkg/models"
)

func event(user string, ts time.Time, action models.Action, resource string) *models.Event {
	return &models.Event{UserID: user, Timestamp: ts, Action: action, Resource: resource}
}

// scenarioEvents builds three users over one week: a steady office
// worker, the same worker plus heavy sensitive-data reads, and a user
// with failed-login bursts and late-night file access.
func scenarioEvents() []*models.Event {
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	at := func(day, h, m int) time.Time { return base.AddDate(0, 0, day).Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	var events []*models.Event

	// user_a: 30 events, all inside working hours, logins always at 09:00
	for day := 0; day < 3; day++ {
		events = append(events, event("user_a", at(day, 9, 0), models.ActionLogin, ""))
		for i := 0; i < 8; i++ {
			events = append(events, event("user_a", at(day, 10, i*30), models.ActionFileAccess, "shared/reports.xlsx"))
		}
		events = append(events, event("user_a", at(day, 16, 0), models.ActionLogout, ""))
	}

	// user_b: the same routine plus 8 sensitive-data reads
	for day := 0; day < 3; day++ {
		events = append(events, event("user_b", at(day, 9, 0), models.ActionLogin, ""))
		for i := 0; i < 8; i++ {
			events = append(events, event("user_b", at(day, 10, i*30), models.ActionFileAccess, "shared/reports.xlsx"))
		}
		events = append(events, event("user_b", at(day, 16, 0), models.ActionLogout, ""))
	}
	for i := 0; i < 8; i++ {
		events = append(events, event("user_b", at(i%3, 11, i*7), models.ActionSensitiveDataAccess, "finance/payroll.db"))
	}

	// user_c: 20 events with 6 failed logins, 4 after-hours file reads,
	// and logins at spread-out hours
	events = append(events, event("user_c", at(0, 9, 0), models.ActionLogin, ""))
	events = append(events, event("user_c", at(1, 15, 0), models.ActionLogin, ""))
	for i := 0; i < 6; i++ {
		events = append(events, event("user_c", at(i%2, 10, i*5), models.ActionFailedLogin, ""))
	}
	for i := 0; i < 4; i++ {
		events = append(events, event("user_c", at(i%2, 22, i*10), models.ActionFileAccess, "projects/designs.zip"))
	}
	for i := 0; i < 8; i++ {
		events = append(events, event("user_c", at(i%3, 13, i*6), models.ActionEmailSent, ""))
	}

	return events
}

func TestRunScenario(t *testing.T) {
	events := scenarioEvents()

	// the textbook 2^(-E[h]/c(n)) normalization bounds a 3-user
	// population's scores to [0.317, 0.564], so the alert threshold sits
	// below that band
	result, err := Run(events, Config{
		Detector: detector.Config{Contamination: 0.33},
		Alerts:   alerts.Config{Threshold: 0.3},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Stats.Events != len(events) || result.Stats.Users != 3 {
		t.Fatalf("unexpected stats: %+v", result.Stats)
	}
	if result.Stats.Outliers != 1 {
		t.Fatalf("expected round(0.33*3)=1 outlier, got %d", result.Stats.Outliers)
	}
	if len(result.Users) != 3 {
		t.Fatalf("expected 3 scored users, got %d", len(result.Users))
	}

	// the steady worker must not outrank both heavier-signal users
	if result.Users[0].UserID == "user_a" {
		t.Fatalf("baseline user ranked most anomalous: %+v", result.Users)
	}
	if !result.Users[0].IsOutlier {
		t.Fatalf("top-ranked user not flagged as outlier")
	}

	// alert purity: exactly the users at or above the threshold, in rank order
	want := 0
	for _, u := range result.Users {
		if u.AnomalyScore >= 0.3 {
			want++
		}
	}
	if len(result.Alerts) != want {
		t.Fatalf("expected %d alerts, got %d", want, len(result.Alerts))
	}
	for i := 1; i < len(result.Alerts); i++ {
		if result.Alerts[i-1].AnomalyScore < result.Alerts[i].AnomalyScore {
			t.Fatalf("alerts not in descending score order")
		}
	}

	reasons := make(map[string][]string, len(result.Alerts))
	for _, a := range result.Alerts {
		reasons[a.UserID] = a.UnusualBehaviors
	}
	if !containsReason(reasons["user_b"], alerts.ReasonSensitiveAccess) {
		t.Fatalf("expected sensitive-access reason for user_b, got %v", reasons["user_b"])
	}
	if !containsReason(reasons["user_c"], alerts.ReasonFailedLogins) {
		t.Fatalf("expected failed-login reason for user_c, got %v", reasons["user_c"])
	}
	if !containsReason(reasons["user_c"], alerts.ReasonIrregularLogins) {
		t.Fatalf("expected irregular-login reason for user_c (hours 9 and 15), got %v", reasons["user_c"])
	}
}

func containsReason(reasons []string, want string) bool {
	for _, r := range reasons {
		if r == want {
			return true
		}
	}
	return false
}

func TestRunDeterministic(t *testing.T) {
	events := scenarioEvents()
	cfg := Config{Detector: detector.Config{Contamination: 0.33, Seed: 7}}

	first, err := Run(events, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Run(events, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range first.Users {
		if first.Users[i].UserID != second.Users[i].UserID || first.Users[i].AnomalyScore != second.Users[i].AnomalyScore {
			t.Fatalf("runs differ at rank %d: %+v vs %+v", i, first.Users[i], second.Users[i])
		}
	}
}

func TestRunInsufficientData(t *testing.T) {
	if _, err := Run(nil, Config{}); !errors.Is(err, detector.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData for no events, got %v", err)
	}

	ts := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	single := []*models.Event{
		event("loner", ts, models.ActionLogin, ""),
		event("loner", ts.Add(time.Hour), models.ActionFileAccess, "shared/notes.txt"),
	}
	if _, err := Run(single, Config{}); !errors.Is(err, detector.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData for a single user, got %v", err)
	}
}

type stubEngine struct{}

func (stubEngine) Apply(ev *models.Event) []models.RuleTag {
	if ev.Action == models.ActionSensitiveDataAccess {
		return []models.RuleTag{{ID: "iw-100", Name: "sensitive data read", Severity: "high"}}
	}
	return nil
}

func TestRunAttachesRuleTags(t *testing.T) {
	result, err := Run(scenarioEvents(), Config{
		Detector: detector.Config{Contamination: 0.33},
		Alerts:   alerts.Config{Threshold: 0.3},
		Engine:   stubEngine{},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var tagged *models.Alert
	for _, a := range result.Alerts {
		if a.UserID == "user_b" {
			tagged = a
		}
	}
	if tagged == nil {
		t.Fatalf("expected an alert for user_b")
	}
	if len(tagged.RuleTags) != 1 || tagged.RuleTags[0].ID != "iw-100" {
		t.Fatalf("expected one deduplicated rule tag, got %+v", tagged.RuleTags)
	}
}
