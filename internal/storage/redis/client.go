package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"vio-chat-service/internal/models"
)

// Key layout: unread:{viewer} is a hash of counterparty -> count plus the seededField
// marker written by Replace, user:{uid} a JSON summary with the cache TTL.
// Room participant ids never contain "_", so the marker cannot clash with a counterparty.
const (
	unreadPrefix = "unread:"
	userPrefix   = "user:"
	seededField  = "_seeded"
)

// decrScript decrements a counter and clamps it at zero in one step.
var decrScript = redis.NewScript(`
local n = redis.call('HINCRBY', KEYS[1], ARGV[1], -1)
if n < 0 then
  redis.call('HSET', KEYS[1], ARGV[1], 0)
  n = 0
end
return n
`)

type Client struct {
	cli *redis.Client
	ttl time.Duration
}

func New(ctx context.Context, url string, ttl time.Duration) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		if closeErr := cli.Close(); closeErr != nil {
			return nil, fmt.Errorf("redis ping: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{cli: cli, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.cli.Close()
}

func (c *Client) Incr(ctx context.Context, viewer, counterparty string) error {
	return c.cli.HIncrBy(ctx, unreadPrefix+viewer, counterparty, 1).Err()
}

func (c *Client) Decr(ctx context.Context, viewer, counterparty string) error {
	return decrScript.Run(ctx, c.cli, []string{unreadPrefix + viewer}, counterparty).Err()
}

func (c *Client) Reset(ctx context.Context, viewer, counterparty string) error {
	return c.cli.HSet(ctx, unreadPrefix+viewer, counterparty, 0).Err()
}

// Counts returns every counter of the viewer. Fields that do not parse are skipped.
// A flushed or evicted hash loses its marker and reads as unseeded.
func (c *Client) Counts(ctx context.Context, viewer string) (map[string]int, bool, error) {
	raw, err := c.cli.HGetAll(ctx, unreadPrefix+viewer).Result()
	if err != nil {
		return nil, false, err
	}
	_, seeded := raw[seededField]
	counts := make(map[string]int, len(raw))
	for field, val := range raw {
		if field == seededField {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			continue
		}
		counts[field] = n
	}
	return counts, seeded, nil
}

func (c *Client) Replace(ctx context.Context, viewer string, counts map[string]int) error {
	key := unreadPrefix + viewer
	_, err := c.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		values := make(map[string]any, len(counts)+1)
		for k, v := range counts {
			values[k] = v
		}
		values[seededField] = 1
		pipe.HSet(ctx, key, values)
		return nil
	})
	return err
}

// GetUser returns ok=false on a cache miss.
func (c *Client) GetUser(ctx context.Context, uid string) (models.UserSummary, bool, error) {
	val, err := c.cli.Get(ctx, userPrefix+uid).Bytes()
	if err == redis.Nil {
		return models.UserSummary{}, false, nil
	}
	if err != nil {
		return models.UserSummary{}, false, err
	}
	var user models.UserSummary
	if err := json.Unmarshal(val, &user); err != nil {
		return models.UserSummary{}, false, nil
	}
	return user, true, nil
}

func (c *Client) PutUsers(ctx context.Context, users ...models.UserSummary) error {
	if len(users) == 0 {
		return nil
	}
	_, err := c.cli.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, u := range users {
			data, err := json.Marshal(u)
			if err != nil {
				return err
			}
			pipe.Set(ctx, userPrefix+u.UID, data, c.ttl)
		}
		return nil
	})
	return err
}

func (c *Client) InvalidateUser(ctx context.Context, uid string) error {
	return c.cli.Del(ctx, userPrefix+uid).Err()
}
