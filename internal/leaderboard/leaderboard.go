// Package leaderboard keeps the ranked standings in a Redis sorted set so the
// top-N query never touches postgres. The set is rebuilt lazily: every match
// completion writes the loser's and winner's new ratings through ZAdd.
package leaderboard

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ratingKey = "leaderboard:rating"
	namesKey  = "leaderboard:names"
)

// Entry is one row of the standings.
type Entry struct {
	PrincipalID string `json:"player_id"`
	DisplayName string `json:"display_name"`
	Rating      int    `json:"rating"`
	Rank        int64  `json:"rank"`
}

// Client wraps the Redis client.
type Client struct {
	*redis.Client
}

// Options holds the Redis connection settings.
type Options struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// New connects and pings. Callers treat a nil *Client as "leaderboard
// disabled" and skip updates.
func New(opts Options) (*Client, error) {
	if opts.PoolSize <= 0 {
		opts.PoolSize = 10
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
		PoolSize: opts.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("leaderboard: connect to redis: %w", err)
	}

	log.Printf("leaderboard: connected to %s (db %d)", opts.Addr, opts.DB)
	return &Client{rdb}, nil
}

// UpdateRating writes a player's post-match rating and display name.
func (c *Client) UpdateRating(ctx context.Context, principalID, displayName string, newRating int) error {
	pipe := c.Pipeline()
	pipe.ZAdd(ctx, ratingKey, redis.Z{Score: float64(newRating), Member: principalID})
	pipe.HSet(ctx, namesKey, principalID, displayName)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("leaderboard: update rating for %s: %w", principalID, err)
	}
	return nil
}

// Top returns the highest-rated players, best first, with 1-based ranks.
func (c *Client) Top(ctx context.Context, limit int64) ([]Entry, error) {
	rows, err := c.ZRevRangeWithScores(ctx, ratingKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard: top %d: %w", limit, err)
	}
	if len(rows) == 0 {
		return []Entry{}, nil
	}

	ids := make([]string, len(rows))
	for i, z := range rows {
		ids[i] = z.Member.(string)
	}
	names, err := c.HMGet(ctx, namesKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard: resolve names: %w", err)
	}

	entries := make([]Entry, len(rows))
	for i, z := range rows {
		name := ""
		if s, ok := names[i].(string); ok {
			name = s
		}
		entries[i] = Entry{
			PrincipalID: ids[i],
			DisplayName: name,
			Rating:      int(z.Score),
			Rank:        int64(i + 1),
		}
	}
	return entries, nil
}

// Rank returns a player's 1-based position, 0 when unranked.
func (c *Client) Rank(ctx context.Context, principalID string) (int64, error) {
	rank, err := c.ZRevRank(ctx, ratingKey, principalID).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("leaderboard: rank for %s: %w", principalID, err)
	}
	return rank + 1, nil
}

// Remove drops a player from the standings.
func (c *Client) Remove(ctx context.Context, principalID string) error {
	pipe := c.Pipeline()
	pipe.ZRem(ctx, ratingKey, principalID)
	pipe.HDel(ctx, namesKey, principalID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("leaderboard: remove %s: %w", principalID, err)
	}
	return nil
}
