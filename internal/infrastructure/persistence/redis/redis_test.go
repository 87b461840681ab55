package redis

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xiebiao/stocktrack/internal/infrastructure/config"
	apperrors "github.com/xiebiao/stocktrack/pkg/errors"
	"github.com/xiebiao/stocktrack/pkg/logger"
)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestResolveCache(t *testing.T) {
	ctx := context.Background()
	mr, client := setupMiniredis(t)
	cache := NewResolveCache(client, time.Hour)

	_, ok, err := cache.Get(ctx, "ITM1-00001")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "ITM1-00001", 42))
	id, ok, err := cache.Get(ctx, "ITM1-00001")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, time.Hour, mr.TTL("resolve:ITM1-00001"))

	mr.FastForward(2 * time.Hour)
	_, ok, err = cache.Get(ctx, "ITM1-00001")
	require.NoError(t, err)
	assert.False(t, ok, "过期后未命中")
}

func TestResolveCache_GarbageValue(t *testing.T) {
	ctx := context.Background()
	mr, client := setupMiniredis(t)
	cache := NewResolveCache(client, 0)

	require.NoError(t, mr.Set("resolve:X", "not-a-number"))
	_, ok, err := cache.Get(ctx, "X")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolveCache_ServerDown(t *testing.T) {
	ctx := context.Background()
	mr, client := setupMiniredis(t)
	cache := NewResolveCache(client, time.Hour)
	mr.Close()

	_, _, err := cache.Get(ctx, "X")
	assert.ErrorIs(t, err, apperrors.ErrRedisError)
}

func TestDeviceRegistry(t *testing.T) {
	ctx := context.Background()
	_, client := setupMiniredis(t)
	registry := NewDeviceRegistry(client)

	info, err := registry.Get(ctx, "scanner-01")
	require.NoError(t, err)
	assert.Nil(t, info)

	at := time.Unix(1_760_000_000, 0)
	require.NoError(t, registry.Touch(ctx, "scanner-01", "10.0.0.8", at))
	require.NoError(t, registry.Touch(ctx, "scanner-01", "10.0.0.9", at.Add(time.Minute)))

	info, err = registry.Get(ctx, "scanner-01")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "10.0.0.9", info.LastIP)
	assert.Equal(t, int64(2), info.Requests)
	assert.True(t, info.LastSeen.Equal(at.Add(time.Minute)))

	revoked, err := registry.IsRevoked(ctx, "scanner-01")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, registry.Revoke(ctx, "scanner-01", "lost", 0))
	revoked, err = registry.IsRevoked(ctx, "scanner-01")
	require.NoError(t, err)
	assert.True(t, revoked)

	require.NoError(t, registry.Restore(ctx, "scanner-01"))
	revoked, err = registry.IsRevoked(ctx, "scanner-01")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	cfg := &config.Config{Redis: config.RedisConfig{Host: mr.Host(), Port: port}}
	client, err := NewClient(cfg)
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	mr.Close()
	_, err = NewClient(cfg)
	assert.ErrorContains(t, err, "Redis连接失败")
}

func TestSlowLogHook(t *testing.T) {
	_, client := setupMiniredis(t)
	core, logs := observer.New(zapcore.WarnLevel)
	ctx := logger.WithContext(context.Background(), zap.New(core))

	// 阈值为0时每条命令都算慢命令
	client.AddHook(slowLogHook{threshold: 0})
	require.NoError(t, client.Set(ctx, "k", "v", 0).Err())
	assert.Equal(t, 1, logs.FilterMessage("redis slow command").FilterField(zap.String("command", "set")).Len())

	// redis.Nil不是错误
	err := client.Get(ctx, "missing").Err()
	assert.ErrorIs(t, err, redis.Nil)
	assert.Equal(t, 0, logs.FilterMessage("redis command failed").FilterField(zap.String("command", "get")).Len())
}
