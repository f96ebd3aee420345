package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"insiderwatch/internal/synthetic"
	"insiderwatch/pkg/models"
)

func main() {
	users := flag.Int("users", 50, "Number of simulated users")
	days := flag.Int("days", 14, "Number of calendar days to simulate")
	seed := flag.Int64("seed", 42, "Random seed")
	out := flag.String("out", "events.jsonl", "Event JSONL output path")
	start := flag.String("start", "", "Start date (YYYY-MM-DD or RFC3339, default 2026-01-05)")
	flag.Parse()

	var startDate time.Time
	if *start != "" {
		parsed, err := parseStart(*start)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid start date: %v\n", err)
			os.Exit(1)
		}
		startDate = parsed
	}

	gen := synthetic.NewGenerator(synthetic.Config{
		Users: *users,
		Days:  *days,
		Seed:  *seed,
		Start: startDate,
	})
	events := gen.Generate()

	if err := writeEvents(*out, events); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write events: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("generated users=%d days=%d events=%d output=%s\n", *users, *days, len(events), *out)
}

func parseStart(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func writeEvents(path string, events []*models.Event) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}
