package alerts

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"insiderwatch/pkg/models"
)

// highRiskScore is the fixed cutoff between medium and high risk.
const highRiskScore = 0.9

// Behavior-rule thresholds, judged on features only.
const (
	varianceThreshold   = 5.0
	afterHoursThreshold = 5
	failedThreshold     = 3
)

// Behavior reasons, in report order.
const (
	ReasonIrregularLogins = "irregular login times"
	ReasonAfterHours      = "elevated after-hours activity"
	ReasonFailedLogins    = "repeated failed logins"
	ReasonSensitiveAccess = "sensitive data access"
)

// Config controls alert generation.
type Config struct {
	Threshold float64
}

// Generator turns ranked scored users into alerts.
type Generator struct {
	cfg Config
	now func() time.Time
}

// NewGenerator creates a generator.
func NewGenerator(cfg Config) *Generator {
	if cfg.Threshold <= 0 || cfg.Threshold > 1 {
		cfg.Threshold = 0.8
	}
	return &Generator{cfg: cfg, now: time.Now}
}

// Generate emits one alert per user at or above the score threshold,
// preserving the ranked input order. tags carries optional per-user rule
// evidence and may be nil.
func (g *Generator) Generate(users []models.ScoredUser, tags map[string][]models.RuleTag) []*models.Alert {
	if len(users) == 0 {
		return nil
	}

	ts := g.now()
	var out []*models.Alert
	for _, u := range users {
		if u.AnomalyScore < g.cfg.Threshold {
			continue
		}
		out = append(out, &models.Alert{
			AlertID:          newAlertID(u.UserID),
			Timestamp:        ts,
			UserID:           u.UserID,
			AnomalyScore:     u.AnomalyScore,
			RiskLevel:        riskLevel(u.AnomalyScore),
			UnusualBehaviors: unusualBehaviors(u.FeatureVector),
			RuleTags:         tags[u.UserID],
		})
	}
	return out
}

func riskLevel(score float64) models.RiskLevel {
	if score >= highRiskScore {
		return models.RiskHigh
	}
	return models.RiskMedium
}

// unusualBehaviors lists plain-language reasons in fixed order. Each
// rule is independent of the others and of the anomaly score.
func unusualBehaviors(v models.FeatureVector) []string {
	var reasons []string
	if v.LoginTimeVariance > varianceThreshold {
		reasons = append(reasons, ReasonIrregularLogins)
	}
	if v.AfterHoursActivity > afterHoursThreshold {
		reasons = append(reasons, ReasonAfterHours)
	}
	if v.FailedLoginAttempts > failedThreshold {
		reasons = append(reasons, ReasonFailedLogins)
	}
	if v.SensitiveDataAccess > 0 {
		reasons = append(reasons, ReasonSensitiveAccess)
	}
	return reasons
}

func newAlertID(userID string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return userID + "-" + time.Now().Format("20060102150405")
	}
	return userID + "-" + hex.EncodeToString(buf)
}
