package rules

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"insiderwatch/pkg/models"
)

const sensitiveAccessRule = `title: Sensitive data store read
id: iw-001
level: high
tags:
  - attack.collection
  - attack.t1530
logsource:
  product: user_activity
detection:
  selection:
    action: sensitive_data_access
  condition: selection
`

const countingRule = `title: Burst of failed logins
id: iw-002
level: medium
logsource:
  product: user_activity
detection:
  selection:
    action: failed_login
  condition: selection | count() by user_id > 3
`

const foreignSourceRule = `title: Windows process creation
id: iw-003
level: low
logsource:
  product: windows
  service: sysmon
detection:
  selection:
    EventID: 1
  condition: selection
`

func writeRule(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
		t.Fatalf("write rule: %v", err)
	}
}

func TestSigmaEngineLoadsAndTags(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "sensitive.yml", sensitiveAccessRule)
	writeRule(t, dir, "counting.yml", countingRule)
	writeRule(t, dir, "foreign.yml", foreignSourceRule)
	writeRule(t, dir, "broken.yml", "detection: [")

	engine, stats, err := NewSigmaEngine(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalFiles != 4 {
		t.Fatalf("expected 4 rule files, got %d", stats.TotalFiles)
	}
	if stats.Loaded != 1 || stats.SkippedComplex != 1 || stats.SkippedDatasource != 1 || stats.SkippedInvalid != 1 {
		t.Fatalf("unexpected load stats: %+v", stats)
	}

	hit := &models.Event{
		UserID:    "mallory",
		Timestamp: time.Date(2026, 8, 3, 23, 30, 0, 0, time.UTC),
		Action:    models.ActionSensitiveDataAccess,
		Resource:  "finance/payroll.db",
	}
	tags := engine.Apply(hit)
	if len(tags) != 1 {
		t.Fatalf("expected 1 tag, got %d", len(tags))
	}
	tag := tags[0]
	if tag.ID != "iw-001" || tag.Severity != "high" {
		t.Fatalf("unexpected tag: %+v", tag)
	}
	if tag.Tactic != "collection" || tag.Technique != "T1530" {
		t.Fatalf("attack tags not parsed: %+v", tag)
	}

	miss := &models.Event{
		UserID:    "mallory",
		Timestamp: hit.Timestamp,
		Action:    models.ActionLogin,
	}
	if tags := engine.Apply(miss); tags != nil {
		t.Fatalf("expected no tags for a login event, got %+v", tags)
	}
}

func TestNoopEngine(t *testing.T) {
	var n NoopEngine
	if tags := n.Apply(&models.Event{UserID: "x"}); tags != nil {
		t.Fatalf("expected nil from NoopEngine, got %+v", tags)
	}
}
