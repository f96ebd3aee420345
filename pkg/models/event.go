package models

import "time"

// Action classifies a user activity event.
type Action string

// Known actions. Unknown values are carried through and count toward
// total_actions only.
const (
	ActionLogin               Action = "login"
	ActionLogout              Action = "logout"
	ActionFileAccess          Action = "file_access"
	ActionEmailSent           Action = "email_sent"
	ActionFailedLogin         Action = "failed_login"
	ActionSensitiveDataAccess Action = "sensitive_data_access"
)

// Event is a single user activity record.
type Event struct {
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	Resource  string    `json:"resource,omitempty"`
}
