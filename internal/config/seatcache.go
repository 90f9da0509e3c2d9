package config

import "time"

// SeatCacheConfig controls the Redis copy of the seat map. Without a Redis
// client the cache is off regardless of Enabled.
type SeatCacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Key     string
}

func LoadSeatCacheConfig() SeatCacheConfig {
	c := SeatCacheConfig{
		Enabled: envBool("SEAT_CACHE_ENABLED", true),
		TTL:     envDur("SEAT_CACHE_TTL", 30*time.Second),
		Key:     envStr("SEAT_CACHE_KEY", "seats:snapshot"),
	}
	if c.TTL <= 0 {
		c.Enabled = false
	}
	return c
}
