// Package cache keeps a short-lived copy of the seat map in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/predator49/train-reservation/internal/model"
)

// fillScript writes the snapshot only while the generation counter still
// holds the value the reader saw before loading from the store.
// KEYS[1]=snapshot KEYS[2]=generation ARGV[1]=expected generation
// ARGV[2]=payload ARGV[3]=ttl in ms (0 keeps the value without expiry)
var fillScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[2]) or '0'
if cur ~= ARGV[1] then
  return 0
end
local ttl = tonumber(ARGV[3])
if ttl > 0 then
  redis.call('SET', KEYS[1], ARGV[2], 'PX', ttl)
else
  redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

// SeatCache stores the seat map as one JSON value next to a generation
// counter. Every commit bumps the counter and drops the value, so a reader
// that loaded before the commit cannot write its copy back.
type SeatCache struct {
	client *redis.Client
	key    string
	genKey string
	ttl    time.Duration
}

func NewSeatCache(client *redis.Client, key string, ttl time.Duration) *SeatCache {
	if key == "" {
		key = "seats:snapshot"
	}
	return &SeatCache{client: client, key: key, genKey: key + ":gen", ttl: ttl}
}

// Get returns the cached seat map. ok is false on a miss.
func (c *SeatCache) Get(ctx context.Context) ([]model.Seat, bool, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var seats []model.Seat
	if err := json.Unmarshal(data, &seats); err != nil {
		// drop the unreadable entry so the next read repopulates it
		_ = c.client.Del(ctx, c.key).Err()
		return nil, false, err
	}
	return seats, true, nil
}

// Generation returns the current counter, 0 when no commit has bumped it.
func (c *SeatCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Fill stores seats if the counter still equals gen. stored is false when
// a commit happened in between.
func (c *SeatCache) Fill(ctx context.Context, gen int64, seats []model.Seat) (bool, error) {
	payload, err := json.Marshal(seats)
	if err != nil {
		return false, err
	}
	n, err := fillScript.Run(ctx, c.client, []string{c.key, c.genKey},
		gen, payload, c.ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Invalidate bumps the generation and drops the snapshot atomically.
func (c *SeatCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, c.genKey)
		p.Del(ctx, c.key)
		return nil
	})
	return err
}
