package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"log/slog"

	"github.com/redis/go-redis/v9"

	"relay-service/internal/config"
)

const (
	onlineUsersKey    = "online_users"
	statusChannel     = "user_status"
	onlineStatusTTL   = 5 * time.Minute
	offlineStatusTTL  = 24 * time.Hour
	dialPingTimeout   = 5 * time.Second
	statusKeyTemplate = "user:%s:status"
)

// StatusUpdate is the pub/sub record pushed on every presence transition.
type StatusUpdate struct {
	UserID    string `json:"user_id"`
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

// Mirror write-throughs presence transitions to Redis so out-of-process
// observers (dashboards, other services) can follow who is online. It is
// strictly advisory: the in-memory registry remains the source of truth for
// delivery decisions, and the relay runs fine with no mirror at all.
type Mirror struct {
	client *redis.Client
}

// Dial connects to Redis from the configured URL and verifies the connection.
func Dial(cfg config.RedisConfig) (*Mirror, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.MaxRetries = cfg.MaxRetries
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), dialPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Redis connection established")
	return &Mirror{client: client}, nil
}

func NewMirror(client *redis.Client) *Mirror {
	return &Mirror{client: client}
}

func (m *Mirror) SetOnline(ctx context.Context, userID string) error {
	pipe := m.client.Pipeline()
	pipe.SAdd(ctx, onlineUsersKey, userID)
	pipe.HSet(ctx, fmt.Sprintf(statusKeyTemplate, userID), map[string]interface{}{
		"status":     "online",
		"updated_at": time.Now().Unix(),
	})
	pipe.Expire(ctx, fmt.Sprintf(statusKeyTemplate, userID), onlineStatusTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	return m.publish(ctx, userID, "online")
}

func (m *Mirror) SetOffline(ctx context.Context, userID string) error {
	pipe := m.client.Pipeline()
	pipe.SRem(ctx, onlineUsersKey, userID)
	pipe.HSet(ctx, fmt.Sprintf(statusKeyTemplate, userID), map[string]interface{}{
		"status":     "offline",
		"last_seen":  time.Now().Unix(),
		"updated_at": time.Now().Unix(),
	})
	pipe.Expire(ctx, fmt.Sprintf(statusKeyTemplate, userID), offlineStatusTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	return m.publish(ctx, userID, "offline")
}

// OnlineUsers reads the mirrored online set. Observers only; the relay never
// consults it.
func (m *Mirror) OnlineUsers(ctx context.Context) ([]string, error) {
	return m.client.SMembers(ctx, onlineUsersKey).Result()
}

func (m *Mirror) publish(ctx context.Context, userID, status string) error {
	update := StatusUpdate{
		UserID:    userID,
		Status:    status,
		Timestamp: time.Now().Unix(),
	}
	payload, err := json.Marshal(update)
	if err != nil {
		return err
	}
	return m.client.Publish(ctx, statusChannel, payload).Err()
}

func (m *Mirror) Close() error {
	return m.client.Close()
}
