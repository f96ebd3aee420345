package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"insiderwatch/internal/logger"
	"insiderwatch/pkg/models"
)

// Config configures the Redis event source.
type Config struct {
	Addr      string
	Password  string
	DB        int
	Queue     string
	MaxEvents int
}

// Consumer drains one finite batch of activity events from a Redis list.
// Runs are batch-only: Drain stops at an empty queue rather than waiting
// for more input.
type Consumer struct {
	client    *redis.Client
	queue     string
	maxEvents int
}

// NewConsumer connects to Redis and verifies the connection with a ping.
func NewConsumer(cfg Config) (*Consumer, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if strings.TrimSpace(cfg.Queue) == "" {
		return nil, fmt.Errorf("redis queue name is required")
	}
	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = 100000
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis event queue: %w", err)
	}

	return &Consumer{
		client:    client,
		queue:     strings.TrimSpace(cfg.Queue),
		maxEvents: cfg.MaxEvents,
	}, nil
}

// Drain pops events until the queue is empty, MaxEvents is reached, or
// ctx is done. Payloads that do not decode as events are skipped and
// counted, never fatal: one bad producer must not sink the whole batch.
func (c *Consumer) Drain(ctx context.Context) ([]*models.Event, error) {
	events := make([]*models.Event, 0, 1024)
	skipped := 0

	for len(events) < c.maxEvents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		payload, err := c.client.LPop(ctx, c.queue).Result()
		if err == redis.Nil {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("pop from %s: %w", c.queue, err)
		}

		var ev models.Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			skipped++
			continue
		}
		if ev.UserID == "" || ev.Timestamp.IsZero() {
			skipped++
			continue
		}
		events = append(events, &ev)
	}

	if skipped > 0 {
		logger.Warnf("Skipped %d undecodable payloads from %s", skipped, c.queue)
	}
	if len(events) == c.maxEvents {
		logger.Infof("Stopped draining %s at the %d event cap", c.queue, c.maxEvents)
	}
	return events, nil
}

// Close closes the Redis connection.
func (c *Consumer) Close() error {
	return c.client.Close()
}
