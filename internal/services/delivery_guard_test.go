package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDeliveryGuard(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryDeliveryGuard(time.Hour)
	t.Cleanup(g.Stop)

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return clock }

	first, err := g.Claim(ctx, "event:evt_1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := g.Claim(ctx, "event:evt_1")
	require.NoError(t, err)
	assert.False(t, again)

	require.NoError(t, g.Release(ctx, "event:evt_1"))
	afterRelease, err := g.Claim(ctx, "event:evt_1")
	require.NoError(t, err)
	assert.True(t, afterRelease)

	clock = clock.Add(2 * time.Hour)
	expired, err := g.Claim(ctx, "event:evt_1")
	require.NoError(t, err)
	assert.True(t, expired, "claims older than the TTL are forgotten")
}

func TestMemoryDeliveryGuardCleanup(t *testing.T) {
	g := NewMemoryDeliveryGuard(time.Minute)
	t.Cleanup(g.Stop)

	clock := time.Now()
	g.now = func() time.Time { return clock }
	_, _ = g.Claim(context.Background(), "a")
	_, _ = g.Claim(context.Background(), "b")
	require.Equal(t, 2, g.Len())

	clock = clock.Add(2 * time.Minute)
	g.cleanup()
	assert.Equal(t, 0, g.Len())

	g.Stop()
	g.Stop()
}

func TestRedisDeliveryGuard(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	g := NewRedisDeliveryGuard(client, 10*time.Minute)

	first, err := g.Claim(ctx, "body:abc")
	require.NoError(t, err)
	assert.True(t, first)
	assert.True(t, mr.Exists("webhook_delivery:body:abc"))
	assert.Equal(t, 10*time.Minute, mr.TTL("webhook_delivery:body:abc"))

	again, err := g.Claim(ctx, "body:abc")
	require.NoError(t, err)
	assert.False(t, again)

	require.NoError(t, g.Release(ctx, "body:abc"))
	assert.False(t, mr.Exists("webhook_delivery:body:abc"))

	mr.FastForward(11 * time.Minute)
	reclaimed, err := g.Claim(ctx, "body:abc")
	require.NoError(t, err)
	assert.True(t, reclaimed)
}

func TestRedisDeliveryGuardUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	_, err := NewRedisDeliveryGuard(client, time.Minute).Claim(context.Background(), "k")
	assert.Error(t, err)
}
