// internal/notify/redis.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list the notifier worker consumes from.
var DefaultQueueName = "campuslink_notifications"

// QueuedEvent is the wire format pushed onto the Redis queue. The timestamp
// is set by the producer so delivery order survives worker restarts.
type QueuedEvent struct {
	UserID    uuid.UUID `json:"user_id"`
	Event     Event     `json:"event"`
	Timestamp int64     `json:"timestamp"`
}

// ConnectRedis builds a Redis client from environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
//
// It pings the server before returning so a misconfigured address fails at
// startup instead of on the first notification.
func ConnectRedis() (*redis.Client, error) {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// QueueName returns the configured notification queue name.
func QueueName() string {
	return getEnv("NOTIFY_QUEUE_NAME", DefaultQueueName)
}

// RedisNotifier publishes events to a Redis list for the notifier worker to
// consume. Publishing is a single RPUSH; it does not wait for delivery.
type RedisNotifier struct {
	rdb   *redis.Client
	queue string
}

func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, queue: QueueName()}
}

func (n *RedisNotifier) Notify(ctx context.Context, userID uuid.UUID, ev Event) error {
	qe := QueuedEvent{
		UserID:    userID,
		Event:     ev,
		Timestamp: time.Now().UnixMilli(),
	}
	data, err := json.Marshal(qe)
	if err != nil {
		return fmt.Errorf("failed to marshal queued event: %w", err)
	}
	if err := n.rdb.RPush(ctx, n.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", n.queue, err)
	}
	return nil
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt parses an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
