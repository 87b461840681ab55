package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/stocktrack/pkg/errors"
)

// DeviceRegistry 扫码设备登记
// 设计说明：
// 1. 设备Token是无状态的长期Token，服务端只能靠停用名单让某台设备失效
// 2. 记录每台设备最近一次请求的时间和来源IP，便于排查“哪台枪扫的”
// 3. Key设计：device:{name}（Hash）、revoked_device:{name}（String）
type DeviceRegistry struct {
	client *redis.Client
}

// NewDeviceRegistry 创建设备登记
func NewDeviceRegistry(client *redis.Client) *DeviceRegistry {
	return &DeviceRegistry{client: client}
}

// DeviceInfo 设备最近活动
type DeviceInfo struct {
	Name     string
	LastSeen time.Time
	LastIP   string
	Requests int64
}

func deviceKey(name string) string {
	return fmt.Sprintf("device:%s", name)
}

func revokedKey(name string) string {
	return fmt.Sprintf("revoked_device:%s", name)
}

// Touch 记录设备一次请求
// 使用Pipeline把HSet和HIncrBy合并为一次网络往返
func (r *DeviceRegistry) Touch(ctx context.Context, name, ip string, at time.Time) error {
	key := deviceKey(name)
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "last_seen", at.Unix(), "last_ip", ip)
		pipe.HIncrBy(ctx, key, "requests", 1)
		return nil
	})
	if err != nil {
		return apperrors.ErrRedisError.WithCause(err)
	}
	return nil
}

// Get 读取设备最近活动，从未出现过返回nil
func (r *DeviceRegistry) Get(ctx context.Context, name string) (*DeviceInfo, error) {
	var raw struct {
		LastSeen int64  `redis:"last_seen"`
		LastIP   string `redis:"last_ip"`
		Requests int64  `redis:"requests"`
	}
	res := r.client.HGetAll(ctx, deviceKey(name))
	if err := res.Err(); err != nil {
		return nil, apperrors.ErrRedisError.WithCause(err)
	}
	if len(res.Val()) == 0 {
		return nil, nil
	}
	if err := res.Scan(&raw); err != nil {
		return nil, apperrors.ErrRedisError.WithCause(err)
	}
	return &DeviceInfo{
		Name:     name,
		LastSeen: time.Unix(raw.LastSeen, 0),
		LastIP:   raw.LastIP,
		Requests: raw.Requests,
	}, nil
}

// Revoke 停用设备，ttl<=0表示永久停用
func (r *DeviceRegistry) Revoke(ctx context.Context, name, reason string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, revokedKey(name), reason, ttl).Err(); err != nil {
		return apperrors.ErrRedisError.WithCause(err)
	}
	return nil
}

// Restore 恢复被停用的设备
func (r *DeviceRegistry) Restore(ctx context.Context, name string) error {
	if err := r.client.Del(ctx, revokedKey(name)).Err(); err != nil {
		return apperrors.ErrRedisError.WithCause(err)
	}
	return nil
}

// IsRevoked 检查设备是否被停用
func (r *DeviceRegistry) IsRevoked(ctx context.Context, name string) (bool, error) {
	exists, err := r.client.Exists(ctx, revokedKey(name)).Result()
	if err != nil {
		return false, apperrors.ErrRedisError.WithCause(err)
	}
	return exists > 0, nil
}
