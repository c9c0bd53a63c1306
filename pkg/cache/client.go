// Package cache wraps Redis for explanation caching and rescan coordination
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/redis/go-redis/v9"

	"github.com/campusfound/beacon/pkg/models"
)

const explanationKeyPrefix = "beacon:explain:"

// Config holds Redis connection configuration
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Client wraps the Redis client with logging and Beacon's operations
type Client struct {
	rdb    *redis.Client
	logger ectologger.Logger
}

// NewClient creates a new Redis client
func NewClient(cfg Config, logger ectologger.Logger) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	logger.Infof("Connected to Redis at %s", addr)

	return &Client{
		rdb:    rdb,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks if Redis is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// GetExplanation retrieves a cached match explanation, nil on miss
func (c *Client) GetExplanation(ctx context.Context, matchID string) (*models.MatchExplanation, error) {
	raw, err := c.rdb.Get(ctx, explanationKeyPrefix+matchID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var exp models.MatchExplanation
	if err := json.Unmarshal([]byte(raw), &exp); err != nil {
		// A corrupt entry is a miss, not an error
		c.logger.WithContext(ctx).WithError(err).Warn("Dropping unreadable cached explanation")
		_ = c.rdb.Del(ctx, explanationKeyPrefix+matchID).Err()
		return nil, nil
	}

	return &exp, nil
}

// SetExplanation caches a match explanation
func (c *Client) SetExplanation(ctx context.Context, exp *models.MatchExplanation, ttl time.Duration) error {
	raw, err := json.Marshal(exp)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, explanationKeyPrefix+exp.MatchID, raw, ttl).Err()
}

// InvalidateExplanation drops a cached explanation after a rescore
func (c *Client) InvalidateExplanation(ctx context.Context, matchID string) error {
	return c.rdb.Del(ctx, explanationKeyPrefix+matchID).Err()
}
