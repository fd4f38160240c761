package connectors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/hyperterse/hyperbench/core/domain"
)

// redisBackend treats each statement as a Redis command line such as
// "GET key" or "ZRANGE leaderboard 0 9"
type redisBackend struct {
	url    string
	client *redis.Client
}

// NewRedisConnector creates a Redis connector
func NewRedisConnector(creds domain.Credentials) *Session {
	return newSession(VendorRedis, "", &redisBackend{url: creds.String("url")})
}

func (b *redisBackend) open(context.Context) error {
	opt, err := redis.ParseURL(b.url)
	if err != nil {
		return fmt.Errorf("failed to parse redis connection string: %w", err)
	}
	opt.PoolSize = 1
	b.client = redis.NewClient(opt)
	return nil
}

func (b *redisBackend) ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *redisBackend) disableCache(context.Context) error {
	return nil
}

func (b *redisBackend) query(ctx context.Context, statement string, params map[string]any) ([]map[string]any, error) {
	if b.client == nil {
		return nil, errors.New("redis connection is closed")
	}

	parts := strings.Fields(statement)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty redis command")
	}

	args := make([]any, 0, len(parts))
	args = append(args, strings.ToUpper(parts[0]))
	for _, arg := range parts[1:] {
		for key, value := range params {
			arg = strings.ReplaceAll(arg, "{{ params."+key+" }}", fmt.Sprint(value))
		}
		args = append(args, arg)
	}

	val, err := b.client.Do(ctx, args...).Result()
	if errors.Is(err, redis.Nil) {
		return []map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis command failed: %w", err)
	}

	switch v := val.(type) {
	case []any:
		rows := make([]map[string]any, 0, len(v))
		for _, item := range v {
			rows = append(rows, map[string]any{"value": item})
		}
		return rows, nil
	case map[any]any:
		row := make(map[string]any, len(v))
		for k, item := range v {
			row[fmt.Sprint(k)] = item
		}
		return []map[string]any{row}, nil
	default:
		return []map[string]any{{"value": v}}, nil
	}
}

func (b *redisBackend) cleanup(context.Context) error {
	return nil
}

func (b *redisBackend) close() error {
	if b.client == nil {
		return nil
	}
	err := b.client.Close()
	b.client = nil
	return err
}
