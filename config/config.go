package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Insiderwatch InsiderwatchConfig `yaml:"insiderwatch"`
}

// InsiderwatchConfig is the project configuration.
type InsiderwatchConfig struct {
	Input    InputConfig    `yaml:"input"`
	Detector DetectorConfig `yaml:"detector"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Rules    RulesConfig    `yaml:"rules"`
	Output   OutputConfig   `yaml:"output"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// InputConfig selects the event source for a run.
type InputConfig struct {
	Mode  string           `yaml:"mode"` // jsonl | csv | redis
	Path  string           `yaml:"path"`
	Redis RedisInputConfig `yaml:"redis"`
}

// RedisInputConfig controls the queue drain source.
type RedisInputConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	Queue     string `yaml:"queue"`
	MaxEvents int    `yaml:"max_events"`
}

// DetectorConfig controls the anomaly scorer.
type DetectorConfig struct {
	Contamination  float64            `yaml:"contamination"`
	NEstimators    int                `yaml:"n_estimators"`
	RandomSeed     int64              `yaml:"random_seed"`
	Workers        int                `yaml:"workers"`
	WorkingHours   WorkingHoursConfig `yaml:"working_hours"`
	FeatureWeights map[string]float64 `yaml:"feature_weights"`
}

// WorkingHoursConfig is the HH:MM working-hours window.
type WorkingHoursConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// AlertsConfig controls alert generation.
type AlertsConfig struct {
	Threshold float64 `yaml:"threshold"`
}

// RulesConfig controls optional Sigma event tagging.
type RulesConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// OutputConfig controls result writers. Empty paths disable a writer.
type OutputConfig struct {
	ScoredJSONL string           `yaml:"scored_jsonl"`
	ScoredCSV   string           `yaml:"scored_csv"`
	AlertsJSONL string           `yaml:"alerts_jsonl"`
	AlertsHTTP  AlertsHTTPConfig `yaml:"alerts_http"`
}

// AlertsHTTPConfig controls the alert webhook writer.
type AlertsHTTPConfig struct {
	Enabled        bool              `yaml:"enabled"`
	URL            string            `yaml:"url"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
	Headers        map[string]string `yaml:"headers"`
}

// MetricsConfig controls Pushgateway delivery of run metrics.
type MetricsConfig struct {
	Enabled        bool   `yaml:"enabled"`
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
