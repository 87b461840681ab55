package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/stocktrack/pkg/errors"
)

func TestManager_GenerateAndParse(t *testing.T) {
	m := NewManager("test-secret", time.Hour, "stocktrack")

	token, err := m.GenerateToken("scanner-01")
	require.NoError(t, err)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "scanner-01", claims.Device)
	assert.Equal(t, "scanner-01", claims.Subject)
}

func TestManager_EmptyDevice(t *testing.T) {
	m := NewManager("test-secret", time.Hour, "stocktrack")

	_, err := m.GenerateToken("")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidParams))
}

func TestManager_Expired(t *testing.T) {
	m := NewManager("test-secret", time.Minute, "stocktrack")
	issued := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issued }

	token, err := m.GenerateToken("scanner-01")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ParseToken(token)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestManager_WrongSecret(t *testing.T) {
	token, err := NewManager("secret-a", 0, "stocktrack").GenerateToken("scanner-01")
	require.NoError(t, err)

	_, err = NewManager("secret-b", 0, "stocktrack").ParseToken(token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestManager_WrongIssuer(t *testing.T) {
	token, err := NewManager("secret", 0, "other").GenerateToken("scanner-01")
	require.NoError(t, err)

	_, err = NewManager("secret", 0, "stocktrack").ParseToken(token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestDeviceContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, DeviceFromContext(ctx))

	ctx = WithDevice(ctx, "scanner-02")
	assert.Equal(t, "scanner-02", DeviceFromContext(ctx))
}
