package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/stocktrack/pkg/errors"
)

const resolveKeyPrefix = "resolve:"

// ResolveCache 扫码解析缓存
// 设计说明：
// 1. Key：resolve:{扫码串}，Value：物品ID
// 2. 物品条码和池条码一旦登记就不会改绑到别的物品，缓存不需要主动失效
// 3. TTL只用于回收不再扫到的条码，ttl<=0表示不过期
type ResolveCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResolveCache 创建解析缓存
func NewResolveCache(client *redis.Client, ttl time.Duration) *ResolveCache {
	return &ResolveCache{client: client, ttl: ttl}
}

// Get 读取缓存，未命中返回ok=false
func (c *ResolveCache) Get(ctx context.Context, scanned string) (uint, bool, error) {
	val, err := c.client.Get(ctx, resolveKeyPrefix+scanned).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, apperrors.ErrRedisError.WithCause(err)
	}

	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil || id == 0 {
		// 脏数据当作未命中，下次解析成功会覆盖
		return 0, false, nil
	}
	return uint(id), true, nil
}

// Set 写入缓存
func (c *ResolveCache) Set(ctx context.Context, scanned string, itemID uint) error {
	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, resolveKeyPrefix+scanned, itemID, ttl).Err(); err != nil {
		return apperrors.ErrRedisError.WithCause(err)
	}
	return nil
}
