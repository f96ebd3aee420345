package models

import "time"

// RunStats summarizes one analysis run.
type RunStats struct {
	Events   int           `json:"events"`
	Users    int           `json:"users"`
	Outliers int           `json:"outliers"`
	Alerts   int           `json:"alerts"`
	Elapsed  time.Duration `json:"elapsed_ns"`
}

// RunResult is the immutable outcome of one pipeline run. Users are
// ranked by descending anomaly score; Alerts are the subset at or above
// the alert threshold in the same order.
type RunResult struct {
	Users  []ScoredUser `json:"users"`
	Alerts []*Alert     `json:"alerts"`
	Stats  RunStats     `json:"stats"`
}
