package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"unipool/internal/general/config"
	"unipool/internal/ports"

	"github.com/redis/go-redis/v9"
)

const defaultAvailabilityTTL = 30 * time.Second

// Cache is a thin Redis wrapper for seat availability snapshots and
// short-lived per-ride booking locks.
type Cache struct {
	client          *redis.Client
	availabilityTTL time.Duration
}

// NewCache connects to Redis using the configured address.
func NewCache(cfg *config.Config) *Cache {
	return &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}),
		availabilityTTL: defaultAvailabilityTTL,
	}
}

// Ping verifies the connection is alive.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// GetAvailability returns a cached availability snapshot, or nil on miss.
func (c *Cache) GetAvailability(ctx context.Context, rideID string) (*ports.SeatAvailability, error) {
	data, err := c.client.Get(ctx, availabilityKey(rideID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var snap ports.SeatAvailability
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// SetAvailability stores an availability snapshot with a short TTL.
func (c *Cache) SetAvailability(ctx context.Context, rideID string, snap *ports.SeatAvailability) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, availabilityKey(rideID), payload, c.availabilityTTL).Err()
}

// InvalidateAvailability drops the cached snapshot after a booking mutation.
func (c *Cache) InvalidateAvailability(ctx context.Context, rideID string) error {
	return c.client.Del(ctx, availabilityKey(rideID)).Err()
}

// AcquireRideLock takes a best-effort mutation lock for a ride. The database
// still enforces seat counts; the lock only reduces contention on hot rides.
func (c *Cache) AcquireRideLock(ctx context.Context, rideID string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, rideLockKey(rideID), "locked", ttl).Result()
}

// ReleaseRideLock releases a previously acquired ride lock.
func (c *Cache) ReleaseRideLock(ctx context.Context, rideID string) error {
	return c.client.Del(ctx, rideLockKey(rideID)).Err()
}

func availabilityKey(rideID string) string {
	return fmt.Sprintf("cache:ride:%s:availability", rideID)
}

func rideLockKey(rideID string) string {
	return fmt.Sprintf("lock:ride:%s", rideID)
}
