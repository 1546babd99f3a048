package services

import (
	"context"
	"sync"
	"time"

	"membership-api/pkg/logging"

	"github.com/redis/go-redis/v9"
)

// DeliveryGuard remembers recently processed webhook deliveries.
type DeliveryGuard interface {
	// Claim records key and reports whether this is its first delivery within the TTL.
	Claim(ctx context.Context, key string) (bool, error)
	// Release forgets key so a retried delivery is processed again.
	Release(ctx context.Context, key string) error
}

// RedisDeliveryGuard shares delivery state between server instances.
type RedisDeliveryGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeliveryGuard(client *redis.Client, ttl time.Duration) *RedisDeliveryGuard {
	return &RedisDeliveryGuard{client: client, ttl: ttl}
}

func (g *RedisDeliveryGuard) key(key string) string {
	return "webhook_delivery:" + key
}

func (g *RedisDeliveryGuard) Claim(ctx context.Context, key string) (bool, error) {
	return g.client.SetNX(ctx, g.key(key), time.Now().Unix(), g.ttl).Result()
}

func (g *RedisDeliveryGuard) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, g.key(key)).Err()
}

// MemoryDeliveryGuard keeps delivery state in process. Used when Redis is not configured.
type MemoryDeliveryGuard struct {
	processed       map[string]time.Time
	mutex           sync.Mutex
	ttl             time.Duration
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
	now             func() time.Time
}

// NewMemoryDeliveryGuard creates the guard and starts its cleanup goroutine.
func NewMemoryDeliveryGuard(ttl time.Duration) *MemoryDeliveryGuard {
	g := &MemoryDeliveryGuard{
		processed:       make(map[string]time.Time),
		ttl:             ttl,
		cleanupInterval: time.Hour,
		stopCleanup:     make(chan struct{}),
		now:             time.Now,
	}

	go g.startCleanupRoutine()

	return g
}

func (g *MemoryDeliveryGuard) Claim(_ context.Context, key string) (bool, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	now := g.now()
	if seenAt, exists := g.processed[key]; exists && now.Sub(seenAt) <= g.ttl {
		return false, nil
	}
	g.processed[key] = now
	return true, nil
}

func (g *MemoryDeliveryGuard) Release(_ context.Context, key string) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	delete(g.processed, key)
	return nil
}

func (g *MemoryDeliveryGuard) startCleanupRoutine() {
	ticker := time.NewTicker(g.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.cleanup()
		case <-g.stopCleanup:
			return
		}
	}
}

// cleanup drops deliveries older than the TTL
func (g *MemoryDeliveryGuard) cleanup() {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	now := g.now()
	initialCount := len(g.processed)

	for key, seenAt := range g.processed {
		if now.Sub(seenAt) > g.ttl {
			delete(g.processed, key)
		}
	}

	if cleaned := initialCount - len(g.processed); cleaned > 0 {
		logging.Infof("Delivery guard cleanup: removed %d expired deliveries, remaining: %d", cleaned, len(g.processed))
	}
}

// Len returns the number of remembered deliveries.
func (g *MemoryDeliveryGuard) Len() int {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return len(g.processed)
}

// Stop ends the cleanup goroutine.
func (g *MemoryDeliveryGuard) Stop() {
	g.stopOnce.Do(func() { close(g.stopCleanup) })
}
