package pipeline

import (
	"fmt"
	"time"

	"insiderwatch/internal/alerts"
	"insiderwatch/internal/detector"
	"insiderwatch/internal/features"
	"insiderwatch/internal/logger"
	"insiderwatch/internal/rules"
	"insiderwatch/pkg/models"
)

// Config assembles the pipeline stages for one run.
type Config struct {
	Window   features.Window
	Detector detector.Config
	Alerts   alerts.Config
	Engine   rules.Engine
}

// Run executes one batch analysis: tag, extract, score, alert. The
// returned RunResult is complete or nil; an input too small to score
// surfaces detector.ErrInsufficientData and produces no partial output.
func Run(events []*models.Event, cfg Config) (*models.RunResult, error) {
	started := time.Now()

	if len(events) == 0 {
		return nil, fmt.Errorf("no events to analyze: %w", detector.ErrInsufficientData)
	}

	var tags map[string][]models.RuleTag
	if cfg.Engine != nil {
		tags = tagEvents(cfg.Engine, events)
	}

	vectors := features.NewExtractor(cfg.Window).Extract(events)
	logger.Infof("Extracted %d feature vectors from %d events", len(vectors), len(events))

	scored, err := detector.NewScorer(cfg.Detector).Score(vectors)
	if err != nil {
		return nil, fmt.Errorf("score users: %w", err)
	}

	alertList := alerts.NewGenerator(cfg.Alerts).Generate(scored, tags)

	outliers := 0
	for _, u := range scored {
		if u.IsOutlier {
			outliers++
		}
	}

	return &models.RunResult{
		Users:  scored,
		Alerts: alertList,
		Stats: models.RunStats{
			Events:   len(events),
			Users:    len(scored),
			Outliers: outliers,
			Alerts:   len(alertList),
			Elapsed:  time.Since(started),
		},
	}, nil
}

// tagEvents collects deduplicated rule tags per user. Events are read
// only; tagging never influences the scorer.
func tagEvents(engine rules.Engine, events []*models.Event) map[string][]models.RuleTag {
	tags := make(map[string][]models.RuleTag)
	seen := make(map[string]map[string]bool)

	for _, ev := range events {
		if ev == nil || ev.UserID == "" {
			continue
		}
		for _, tag := range engine.Apply(ev) {
			key := tag.ID + "|" + tag.Name
			if seen[ev.UserID][key] {
				continue
			}
			if seen[ev.UserID] == nil {
				seen[ev.UserID] = make(map[string]bool)
			}
			seen[ev.UserID][key] = true
			tags[ev.UserID] = append(tags[ev.UserID], tag)
		}
	}

	if len(tags) > 0 {
		logger.Infof("Rule engine tagged %d users", len(tags))
	}
	return tags
}
