package stock

import (
	"context"
	"errors"

	"go.uber.org/zap"

	apperrors "github.com/xiebiao/stocktrack/pkg/errors"
	"github.com/xiebiao/stocktrack/pkg/logger"
	"github.com/xiebiao/stocktrack/pkg/metrics"
)

// runInTx 在事务中执行fn,遇到并发冲突整体重试
// retries次重试后仍冲突,返回ErrTransient(调用方可稍后重试)
func runInTx(ctx context.Context, tx Transactor, retries int, op string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = tx.Transaction(ctx, fn)
		if err == nil || !errors.Is(err, ErrConcurrencyConflict) {
			return err
		}
		if attempt >= retries {
			break
		}
		metrics.IncCounterVec(metrics.TransactionRetriesTotal, map[string]string{"operation": op})
		logger.FromContext(ctx).Warn("transaction conflict, retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	metrics.IncCounterVec(metrics.TransientFailuresTotal, map[string]string{"operation": op})
	return apperrors.ErrTransient.WithCause(err)
}

// reportViolation 记录一致性破坏
// 这类错误说明不变量已被打破,必须留痕,不能静默吞掉
func reportViolation(ctx context.Context, kind string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("kind", kind), zap.Error(err))
	logger.FromContext(ctx).Error("inventory consistency violation", fields...)
	metrics.IncCounterVec(metrics.ConsistencyViolationsTotal, map[string]string{"kind": kind})
}
