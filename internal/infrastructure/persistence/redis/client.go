package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xiebiao/stocktrack/internal/infrastructure/config"
	"github.com/xiebiao/stocktrack/pkg/logger"
)

// slowCommandThreshold 超过该耗时的命令记一条告警
// 条码解析缓存在扫码热路径上，慢命令会直接拖慢每一次扫码
const slowCommandThreshold = 50 * time.Millisecond

// NewClient 创建Redis客户端
// 设计说明：
// 1. 连接池与超时参数来自redis配置段
// 2. 启动时Ping一次，连不上直接失败（redis.enabled=true说明部署者依赖它）
// 3. 挂载slowLogHook，慢命令与非Nil错误写入请求级日志
func NewClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	client.AddHook(slowLogHook{threshold: slowCommandThreshold})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("Redis连接失败: %w", err)
	}

	zap.L().Info("redis connected", zap.String("addr", cfg.Redis.Addr()), zap.Int("db", cfg.Redis.DB))
	return client, nil
}

// slowLogHook go-redis命令钩子
type slowLogHook struct {
	threshold time.Duration
}

var _ redis.Hook = slowLogHook{}

func (h slowLogHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h slowLogHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.observe(ctx, cmd.Name(), time.Since(start), err)
		return err
	}
}

func (h slowLogHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		h.observe(ctx, "pipeline", time.Since(start), err)
		return err
	}
}

func (h slowLogHook) observe(ctx context.Context, name string, elapsed time.Duration, err error) {
	switch {
	case err != nil && !errors.Is(err, redis.Nil):
		logger.FromContext(ctx).Warn("redis command failed",
			zap.String("command", name), zap.Duration("elapsed", elapsed), zap.Error(err))
	case elapsed > h.threshold:
		logger.FromContext(ctx).Warn("redis slow command",
			zap.String("command", name), zap.Duration("elapsed", elapsed))
	}
}
