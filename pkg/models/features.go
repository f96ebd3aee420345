package models

// FeatureVector aggregates one user's behavior over an analyzed batch.
type FeatureVector struct {
	UserID              string  `json:"user_id"`
	LoginTimeVariance   float64 `json:"login_time_variance"`
	FileAccessCount     int     `json:"file_access_count"`
	AfterHoursActivity  int     `json:"after_hours_activity"`
	FailedLoginAttempts int     `json:"failed_login_attempts"`
	SensitiveDataAccess int     `json:"sensitive_data_access"`
	TotalActions        int     `json:"total_actions"`
}

// ScoredUser is a FeatureVector augmented with the ensemble verdict.
type ScoredUser struct {
	FeatureVector
	AnomalyScore float64 `json:"anomaly_score"`
	IsOutlier    bool    `json:"is_outlier"`
}
