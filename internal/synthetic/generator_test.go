package synthetic

import (
	"testing"
	"time"

	"insiderwatch/pkg/models"
)

func TestGenerateDeterministic(t *testing.T) {
	cfg := Config{Users: 12, Days: 7, Seed: 99}
	a := NewGenerator(cfg).Generate()
	b := NewGenerator(cfg).Generate()

	if len(a) == 0 {
		t.Fatalf("expected events")
	}
	if len(a) != len(b) {
		t.Fatalf("runs differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if *a[i] != *b[i] {
			t.Fatalf("event %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}

	c := NewGenerator(Config{Users: 12, Days: 7, Seed: 100}).Generate()
	same := len(a) == len(c)
	if same {
		for i := range a {
			if *a[i] != *c[i] {
				same = false
				break
			}
		}
	}
	if same {
		t.Fatalf("different seeds produced the same dataset")
	}
}

func TestGenerateChronological(t *testing.T) {
	events := NewGenerator(Config{Users: 10, Days: 5, Seed: 7}).Generate()
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.Before(events[i-1].Timestamp) {
			t.Fatalf("events out of order at %d: %v after %v", i, events[i].Timestamp, events[i-1].Timestamp)
		}
	}
}

func TestGenerateScriptedAnomalies(t *testing.T) {
	cfg := Config{Users: 10, Days: 10, Seed: 42}
	events := NewGenerator(cfg).Generate()

	counts := make(map[string]map[models.Action]int)
	for _, ev := range events {
		if counts[ev.UserID] == nil {
			counts[ev.UserID] = make(map[models.Action]int)
		}
		counts[ev.UserID][ev.Action]++
	}
	if len(counts) != cfg.Users {
		t.Fatalf("expected %d users, got %d", cfg.Users, len(counts))
	}

	// last three ids carry the scripted anomalies
	if counts["user_008"][models.ActionLogin] == 0 {
		t.Fatalf("night owl has no logins")
	}
	if got := counts["user_009"][models.ActionFailedLogin]; got < 4 {
		t.Fatalf("brute-force user has too few failed logins: %d", got)
	}
	if got := counts["user_010"][models.ActionSensitiveDataAccess]; got < 8 {
		t.Fatalf("data hoarder has too few sensitive reads: %d", got)
	}

	// night owl activity must fall outside the working day
	after := 0
	for _, ev := range events {
		if ev.UserID != "user_008" {
			continue
		}
		h := ev.Timestamp.Hour()
		if h >= 19 || h <= 4 {
			after++
		}
	}
	if after == 0 {
		t.Fatalf("night owl has no after-hours events")
	}

	// the steady population stays clean of failed logins
	for i := 1; i <= 7; i++ {
		id := "user_00" + string(rune('0'+i))
		if counts[id][models.ActionFailedLogin] != 0 {
			t.Fatalf("baseline user %s has failed logins", id)
		}
	}
}

func TestGenerateSkipsWeekends(t *testing.T) {
	// start on a Saturday: the first two days produce nothing for
	// office workers
	start := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	events := NewGenerator(Config{Users: 2, Days: 2, Seed: 5, Start: start}).Generate()
	if len(events) != 0 {
		t.Fatalf("expected no weekend events, got %d", len(events))
	}
}

func TestGenerateDefaults(t *testing.T) {
	g := NewGenerator(Config{})
	if g.cfg.Users != 50 || g.cfg.Days != 14 || g.cfg.Seed != 42 {
		t.Fatalf("unexpected defaults: %+v", g.cfg)
	}
	if g.cfg.Start.IsZero() {
		t.Fatalf("expected a default start date")
	}
}
