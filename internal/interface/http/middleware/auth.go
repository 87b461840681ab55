package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/xiebiao/stocktrack/pkg/errors"
	"github.com/xiebiao/stocktrack/pkg/jwt"
	"github.com/xiebiao/stocktrack/pkg/logger"
	"github.com/xiebiao/stocktrack/pkg/response"
)

// DeviceRegistry 设备登记簿(redis.DeviceRegistry实现)
type DeviceRegistry interface {
	IsRevoked(ctx context.Context, name string) (bool, error)
	Touch(ctx context.Context, name, ip string, at time.Time) error
}

// AuthMiddleware 设备认证中间件
// 设计说明：
// 1. 从Header提取Bearer Token
// 2. 验证签名与有效期
// 3. 检查设备是否被停用（需要Redis，未启用时跳过）
// 4. 将设备名写入请求Context，作为库存事件的操作者
type AuthMiddleware struct {
	jwtManager *jwt.Manager
	registry   DeviceRegistry
}

// NewAuthMiddleware 创建认证中间件
// registry可以为nil
func NewAuthMiddleware(jwtManager *jwt.Manager, registry DeviceRegistry) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		registry:   registry,
	}
}

// RequireDevice 要求设备Token
// 使用方式：
//
//	inv := v1.Group("/inventory")
//	inv.Use(authMiddleware.RequireDevice())
func (m *AuthMiddleware) RequireDevice() gin.HandlerFunc {
	return func(c *gin.Context) {
		device, err := m.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		if m.registry != nil {
			// 最近活跃时间只用于运维查看，写失败不影响请求
			if err := m.registry.Touch(ctx, device, c.ClientIP(), time.Now()); err != nil {
				logger.FromContext(ctx).Warn("touch device failed", zap.String("device", device), zap.Error(err))
			}
		}

		ctx = jwt.WithDevice(ctx, device)
		ctx = logger.WithContext(ctx, logger.FromContext(ctx).With(zap.String("device", device)))
		c.Request = c.Request.WithContext(ctx)
		c.Set("device", device)

		c.Next()
	}
}

// Authenticate 校验Authorization头并返回设备名
// HTTP和gRPC共用
func (m *AuthMiddleware) Authenticate(ctx context.Context, authHeader string) (string, error) {
	// 1. 格式：Authorization: Bearer <token>
	if authHeader == "" {
		return "", apperrors.ErrUnauthorized
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", apperrors.ErrMalformedToken
	}

	// 2. 验证Token并解析Claims
	claims, err := m.jwtManager.ParseToken(parts[1])
	if err != nil {
		return "", err // ErrTokenExpired或ErrInvalidToken
	}

	// 3. 停用检查
	if m.registry != nil {
		revoked, err := m.registry.IsRevoked(ctx, claims.Device)
		if err != nil {
			return "", apperrors.ErrRedisError.WithCause(err)
		}
		if revoked {
			return "", apperrors.ErrDeviceRevoked
		}
	}

	return claims.Device, nil
}

// GetDevice 从Context获取当前设备名，未认证返回空字符串
func GetDevice(c *gin.Context) string {
	return jwt.DeviceFromContext(c.Request.Context())
}
