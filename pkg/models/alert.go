package models

import "time"

// RiskLevel buckets an alert by anomaly score.
type RiskLevel string

const (
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Alert is an actionable finding for one user in one run.
type Alert struct {
	AlertID          string    `json:"alert_id"`
	Timestamp        time.Time `json:"timestamp"`
	UserID           string    `json:"user_id"`
	AnomalyScore     float64   `json:"anomaly_score"`
	RiskLevel        RiskLevel `json:"risk_level"`
	UnusualBehaviors []string  `json:"unusual_behaviors,omitempty"`
	RuleTags         []RuleTag `json:"rule_tags,omitempty"`
}
