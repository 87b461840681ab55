// Package jwt 签发和校验扫码设备的访问Token
//
// 设备（手持扫码枪、工位终端）没有账号体系，只用一个长期有效、可随时轮换密钥作废的HS256 Token。
// Token的subject即设备名，用作库存事件的操作者（actor）。
package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/xiebiao/stocktrack/pkg/errors"
)

// Manager Token管理器
type Manager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewManager 创建Token管理器
// ttl<=0 表示签发的Token不过期（仅靠轮换密钥作废）
func NewManager(secret string, ttl time.Duration, issuer string) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}
}

// Claims 设备Token载荷
type Claims struct {
	Device string `json:"device"`
	jwt.RegisteredClaims
}

// GenerateToken 为设备签发Token
func (m *Manager) GenerateToken(device string) (string, error) {
	if device == "" {
		return "", apperrors.New(apperrors.ErrCodeInvalidParams, "设备名不能为空")
	}

	now := m.now()
	claims := Claims{
		Device: device,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Subject:   device,
		},
	}
	if m.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", apperrors.Wrap(err, "签发Token失败")
	}
	return signed, nil
}

// ParseToken 校验Token并返回载荷
// 过期返回ErrTokenExpired，其余失败一律ErrInvalidToken
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("非法的签名算法: %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired.WithCause(err)
		}
		return nil, apperrors.ErrInvalidToken.WithCause(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Device == "" {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

type deviceKey struct{}

// WithDevice 把已认证的设备名写入context
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, deviceKey{}, device)
}

// DeviceFromContext 读取当前请求的设备名，未认证返回空字符串
func DeviceFromContext(ctx context.Context) string {
	device, _ := ctx.Value(deviceKey{}).(string)
	return device
}
