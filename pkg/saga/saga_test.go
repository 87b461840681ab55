package saga

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSaga_Execute_Success 所有步骤成功
func TestSaga_Execute_Success(t *testing.T) {
	var executed []string

	s := NewSaga("move-batch", 5*time.Second, nil)
	s.AddStep("移动A",
		func(ctx context.Context) error { executed = append(executed, "移动A"); return nil },
		func(ctx context.Context) error { executed = append(executed, "移回A"); return nil },
	)
	s.AddStep("移动B",
		func(ctx context.Context) error { executed = append(executed, "移动B"); return nil },
		func(ctx context.Context) error { executed = append(executed, "移回B"); return nil },
	)

	require.NoError(t, s.Execute(context.Background()))
	assert.Equal(t, []string{"移动A", "移动B"}, executed)
}

// TestSaga_Execute_FailureAndCompensate 失败后逆序补偿已完成的步骤
func TestSaga_Execute_FailureAndCompensate(t *testing.T) {
	var executed []string
	errNotFound := errors.New("单件不存在")

	s := NewSaga("move-batch", 5*time.Second, nil)
	s.AddStep("移动A",
		func(ctx context.Context) error { executed = append(executed, "移动A"); return nil },
		func(ctx context.Context) error { executed = append(executed, "移回A"); return nil },
	)
	s.AddStep("移动B",
		func(ctx context.Context) error { executed = append(executed, "移动B"); return nil },
		func(ctx context.Context) error { executed = append(executed, "移回B"); return nil },
	)
	s.AddStep("移动C",
		func(ctx context.Context) error { executed = append(executed, "移动C"); return errNotFound },
		func(ctx context.Context) error { executed = append(executed, "移回C"); return nil },
	)

	err := s.Execute(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errNotFound)

	var sagaErr *Error
	require.ErrorAs(t, err, &sagaErr)
	assert.Equal(t, "移动C", sagaErr.Step)
	assert.True(t, sagaErr.Compensated())

	assert.Equal(t, []string{"移动A", "移动B", "移动C", "移回B", "移回A"}, executed)
}

// TestSaga_CompensateErrorsCollected 补偿失败被收集，其余补偿照常执行
func TestSaga_CompensateErrorsCollected(t *testing.T) {
	var executed []string

	s := NewSaga("move-batch", 0, nil)
	s.AddStep("移动A",
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { executed = append(executed, "移回A"); return nil },
	)
	s.AddStep("移动B",
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return errors.New("原库位已删除") },
	)
	s.AddStep("移动C",
		func(ctx context.Context) error { return errors.New("失败") },
		nil,
	)

	err := s.Execute(context.Background())

	var sagaErr *Error
	require.ErrorAs(t, err, &sagaErr)
	assert.False(t, sagaErr.Compensated())
	assert.Len(t, sagaErr.CompensateErrors, 1)
	assert.Equal(t, []string{"移回A"}, executed)
	assert.True(t, IsSagaError(err))
}

// TestSaga_Execute_Timeout 超时后不再执行后续步骤并补偿
func TestSaga_Execute_Timeout(t *testing.T) {
	var executed []string

	s := NewSaga("slow", 50*time.Millisecond, nil)
	s.AddStep("快速步骤",
		func(ctx context.Context) error { executed = append(executed, "快速步骤"); return nil },
		func(ctx context.Context) error {
			// 补偿context不应继承超时
			if ctx.Err() != nil {
				return ctx.Err()
			}
			executed = append(executed, "快速步骤补偿")
			return nil
		},
	)
	s.AddStep("慢速步骤",
		func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
		nil,
	)

	err := s.Execute(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{"快速步骤", "快速步骤补偿"}, executed)
}
