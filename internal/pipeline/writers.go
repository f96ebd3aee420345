package pipeline

import "insiderwatch/pkg/models"

// ScoredWriter persists the ranked scored-user list of one run.
type ScoredWriter interface {
	WriteUsers(users []models.ScoredUser) error
	Close() error
}

// AlertWriter delivers the alerts of one run to a sink.
type AlertWriter interface {
	WriteAlerts(alerts []*models.Alert) error
	Close() error
}
