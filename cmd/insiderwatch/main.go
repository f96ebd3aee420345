package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"insiderwatch/config"
	"insiderwatch/internal/alerts"
	"insiderwatch/internal/detector"
	"insiderwatch/internal/features"
	"insiderwatch/internal/input/eventcsv"
	"insiderwatch/internal/input/eventjson"
	inputredis "insiderwatch/internal/input/redis"
	"insiderwatch/internal/logger"
	"insiderwatch/internal/metrics"
	"insiderwatch/internal/output/alerthttp"
	"insiderwatch/internal/output/alertjson"
	"insiderwatch/internal/output/scoredcsv"
	"insiderwatch/internal/output/scoredjson"
	"insiderwatch/internal/pipeline"
	"insiderwatch/internal/rules"
	"insiderwatch/pkg/models"
)

func findConfigFile(configArg string) string {
	if configArg != "" {
		path := configArg
		if _, err := os.Stat(path); err == nil {
			return path
		}
		log.Printf("Warning: config file not found at %s, trying default locations", path)
	}

	if _, err := os.Stat("insiderwatch.yml"); err == nil {
		return "insiderwatch.yml"
	}
	if _, err := os.Stat(filepath.Join("config", "insiderwatch.yml")); err == nil {
		return filepath.Join("config", "insiderwatch.yml")
	}

	exePath, err := os.Executable()
	if err == nil {
		exeDir := filepath.Dir(exePath)
		path := filepath.Join(exeDir, "insiderwatch.yml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "insiderwatch.yml"
}

// applyDefaults fills missing config keys and reports how many fields
// fell back. Booleans pass through as written.
func applyDefaults(cfg *config.Config) int {
	iw := &cfg.Insiderwatch
	n := 0

	if iw.Input.Mode == "" {
		iw.Input.Mode = "jsonl"
		n++
	}
	if iw.Input.Path == "" {
		iw.Input.Path = "events.jsonl"
		n++
	}
	if iw.Input.Redis.Addr == "" {
		iw.Input.Redis.Addr = "127.0.0.1:6379"
		n++
	}
	if iw.Input.Redis.Queue == "" {
		iw.Input.Redis.Queue = "insiderwatch:events"
		n++
	}
	if iw.Input.Redis.MaxEvents <= 0 {
		iw.Input.Redis.MaxEvents = 100000
		n++
	}

	if iw.Detector.Contamination <= 0 {
		iw.Detector.Contamination = 0.05
		n++
	}
	if iw.Detector.NEstimators <= 0 {
		iw.Detector.NEstimators = 100
		n++
	}
	if iw.Detector.RandomSeed == 0 {
		iw.Detector.RandomSeed = 42
		n++
	}
	if iw.Detector.WorkingHours.Start == "" {
		iw.Detector.WorkingHours.Start = "09:00"
		n++
	}
	if iw.Detector.WorkingHours.End == "" {
		iw.Detector.WorkingHours.End = "17:00"
		n++
	}
	weights := detector.DefaultWeights()
	for name := range weights {
		if _, ok := iw.Detector.FeatureWeights[name]; !ok {
			n++
		}
	}
	for name, w := range iw.Detector.FeatureWeights {
		weights[name] = w
	}
	iw.Detector.FeatureWeights = weights

	if iw.Alerts.Threshold <= 0 {
		iw.Alerts.Threshold = 0.8
		n++
	}

	if iw.Output.ScoredJSONL == "" {
		iw.Output.ScoredJSONL = "output/scored_users.jsonl"
		n++
	}
	if iw.Output.AlertsJSONL == "" {
		iw.Output.AlertsJSONL = "output/alerts.jsonl"
		n++
	}
	if iw.Output.AlertsHTTP.TimeoutSeconds <= 0 {
		iw.Output.AlertsHTTP.TimeoutSeconds = 5
		n++
	}

	if iw.Metrics.Job == "" {
		iw.Metrics.Job = "insiderwatch"
		n++
	}

	if iw.Logging.Level == "" {
		iw.Logging.Level = "info"
		n++
	}

	return n
}

// loadEvents reads one finite event batch from the configured source.
// The Redis drain is guarded by a signal-cancellable context.
func loadEvents(cfg config.InputConfig) ([]*models.Event, error) {
	switch cfg.Mode {
	case "jsonl":
		return eventjson.LoadEvents(cfg.Path)
	case "csv":
		return eventcsv.LoadEvents(cfg.Path)
	case "redis":
		consumer, err := inputredis.NewConsumer(inputredis.Config{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			Queue:     cfg.Redis.Queue,
			MaxEvents: cfg.Redis.MaxEvents,
		})
		if err != nil {
			return nil, err
		}
		defer consumer.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return consumer.Drain(ctx)
	default:
		return nil, fmt.Errorf("unknown input mode: %s", cfg.Mode)
	}
}

func runAnalyze(args []string) {
	configArg := ""
	if len(args) > 0 {
		configArg = args[0]
	}

	configPath := findConfigFile(configArg)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	defaulted := applyDefaults(cfg)
	iw := cfg.Insiderwatch

	if err := logger.Init(iw.Logging.Enabled, iw.Logging.Level, iw.Logging.File, iw.Logging.Console); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Infof("insiderwatch starting")
	logger.Infof("Config loaded from: %s", configPath)
	if defaulted > 0 {
		logger.Infof("Applied %d configuration defaults for missing keys", defaulted)
	}

	events, err := loadEvents(iw.Input)
	if err != nil {
		logger.Errorf("Failed to load events: %v", err)
		log.Fatalf("Failed to load events: %v", err)
	}
	logger.Infof("Loaded %d events from %s input", len(events), iw.Input.Mode)

	var engine rules.Engine
	if iw.Rules.Enabled {
		if strings.TrimSpace(iw.Rules.Path) == "" {
			logger.Warnf("Rules enabled but rules.path is empty; rule tagging disabled")
		} else {
			sigmaEngine, stats, err := rules.NewSigmaEngine(iw.Rules.Path)
			if err != nil {
				logger.Errorf("Failed to load Sigma rules from %s: %v", iw.Rules.Path, err)
				log.Fatalf("Failed to load Sigma rules: %v", err)
			}
			engine = sigmaEngine
			logger.Infof("Sigma rules loaded: loaded=%d skipped_complex=%d skipped_datasource=%d skipped_invalid=%d files=%d",
				stats.Loaded,
				stats.SkippedComplex,
				stats.SkippedDatasource,
				stats.SkippedInvalid,
				stats.TotalFiles,
			)
			if stats.Loaded == 0 {
				logger.Warnf("No compatible Sigma rules loaded; rule tagging is effectively disabled")
			}
		}
	}

	window, err := features.ParseWindow(iw.Detector.WorkingHours.Start, iw.Detector.WorkingHours.End)
	if err != nil {
		logger.Errorf("Invalid working hours: %v", err)
		log.Fatalf("Invalid working hours: %v", err)
	}

	result, err := pipeline.Run(events, pipeline.Config{
		Window: window,
		Detector: detector.Config{
			Contamination: iw.Detector.Contamination,
			Trees:         iw.Detector.NEstimators,
			Seed:          iw.Detector.RandomSeed,
			Workers:       iw.Detector.Workers,
			Weights:       iw.Detector.FeatureWeights,
		},
		Alerts: alerts.Config{Threshold: iw.Alerts.Threshold},
		Engine: engine,
	})
	if err != nil {
		if errors.Is(err, detector.ErrInsufficientData) {
			logger.Errorf("Insufficient data for analysis: %v", err)
			log.Fatalf("Insufficient data for analysis: %v", err)
		}
		logger.Errorf("Analysis failed: %v", err)
		log.Fatalf("Analysis failed: %v", err)
	}

	var scoredWriters []pipeline.ScoredWriter
	var alertWriters []pipeline.AlertWriter

	if iw.Output.ScoredJSONL != "" {
		w, err := scoredjson.NewWriter(iw.Output.ScoredJSONL)
		if err != nil {
			logger.Errorf("Failed to create scored JSON writer: %v", err)
			log.Fatalf("Failed to create scored JSON writer: %v", err)
		}
		scoredWriters = append(scoredWriters, w)
	}
	if iw.Output.ScoredCSV != "" {
		w, err := scoredcsv.NewWriter(iw.Output.ScoredCSV)
		if err != nil {
			logger.Errorf("Failed to create scored CSV writer: %v", err)
			log.Fatalf("Failed to create scored CSV writer: %v", err)
		}
		scoredWriters = append(scoredWriters, w)
	}
	if iw.Output.AlertsJSONL != "" {
		w, err := alertjson.NewWriter(iw.Output.AlertsJSONL)
		if err != nil {
			logger.Errorf("Failed to create alert JSON writer: %v", err)
			log.Fatalf("Failed to create alert JSON writer: %v", err)
		}
		alertWriters = append(alertWriters, w)
	}
	if iw.Output.AlertsHTTP.Enabled {
		w, err := alerthttp.NewWriter(alerthttp.Config{
			URL:     iw.Output.AlertsHTTP.URL,
			Timeout: time.Duration(iw.Output.AlertsHTTP.TimeoutSeconds) * time.Second,
			Headers: iw.Output.AlertsHTTP.Headers,
		})
		if err != nil {
			logger.Errorf("Failed to create alert HTTP writer: %v", err)
			log.Fatalf("Failed to create alert HTTP writer: %v", err)
		}
		alertWriters = append(alertWriters, w)
	}

	for _, w := range scoredWriters {
		if err := w.WriteUsers(result.Users); err != nil {
			logger.Errorf("Failed to write scored users: %v", err)
			log.Fatalf("Failed to write scored users: %v", err)
		}
	}
	for _, w := range alertWriters {
		if err := w.WriteAlerts(result.Alerts); err != nil {
			logger.Errorf("Failed to write alerts: %v", err)
			log.Fatalf("Failed to write alerts: %v", err)
		}
	}
	for _, w := range scoredWriters {
		if err := w.Close(); err != nil {
			logger.Errorf("Failed to close scored writer: %v", err)
		}
	}
	for _, w := range alertWriters {
		if err := w.Close(); err != nil {
			logger.Errorf("Failed to close alert writer: %v", err)
		}
	}

	if iw.Metrics.Enabled && iw.Metrics.PushgatewayURL != "" {
		recorder := metrics.NewRecorder()
		recorder.Observe(result.Stats)
		if err := recorder.Push(iw.Metrics.PushgatewayURL, iw.Metrics.Job); err != nil {
			logger.Errorf("Failed to push metrics: %v", err)
		} else {
			logger.Infof("Metrics pushed to %s", iw.Metrics.PushgatewayURL)
		}
	}

	logger.Infof("Analysis finished: events=%d users=%d outliers=%d alerts=%d elapsed=%s",
		result.Stats.Events, result.Stats.Users, result.Stats.Outliers, result.Stats.Alerts, result.Stats.Elapsed)
	fmt.Printf("analyzed events=%d users=%d outliers=%d alerts=%d elapsed=%s\n",
		result.Stats.Events, result.Stats.Users, result.Stats.Outliers, result.Stats.Alerts, result.Stats.Elapsed)
}

func runScore(args []string) int {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	input := fs.String("input", "events.jsonl", "Event JSONL input path")
	output := fs.String("output", "output/scored_users.jsonl", "Scored-user JSONL output path")
	alertsOut := fs.String("alerts", "output/alerts.jsonl", "Alert JSONL output path (empty disables)")
	contamination := fs.Float64("contamination", 0.05, "Expected outlier fraction in (0,1)")
	trees := fs.Int("trees", 100, "Number of isolation trees")
	seed := fs.Int64("seed", 42, "Random seed")
	threshold := fs.Float64("threshold", 0.8, "Alert score threshold in [0,1]")
	workers := fs.Int("workers", 0, "Tree-building workers (0 = GOMAXPROCS)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	events, err := eventjson.LoadEvents(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load events: %v\n", err)
		return 1
	}

	result, err := pipeline.Run(events, pipeline.Config{
		Detector: detector.Config{
			Contamination: *contamination,
			Trees:         *trees,
			Seed:          *seed,
			Workers:       *workers,
			Weights:       detector.DefaultWeights(),
		},
		Alerts: alerts.Config{Threshold: *threshold},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to score events: %v\n", err)
		return 1
	}

	w, err := scoredjson.NewWriter(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create output writer: %v\n", err)
		return 1
	}
	if err := w.WriteUsers(result.Users); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write scored users: %v\n", err)
		return 1
	}
	w.Close()

	if strings.TrimSpace(*alertsOut) != "" {
		aw, err := alertjson.NewWriter(*alertsOut)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create alert writer: %v\n", err)
			return 1
		}
		if err := aw.WriteAlerts(result.Alerts); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write alerts: %v\n", err)
			return 1
		}
		aw.Close()
	}

	fmt.Printf("scored events=%d users=%d outliers=%d alerts=%d output=%s\n",
		result.Stats.Events, result.Stats.Users, result.Stats.Outliers, result.Stats.Alerts, *output)
	return 0
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "analyze":
			runAnalyze(os.Args[2:])
			return
		case "score":
			os.Exit(runScore(os.Args[2:]))
		default:
			// Backward-compatible mode: first arg is config path.
			runAnalyze(os.Args[1:])
			return
		}
	}

	runAnalyze(nil)
}
