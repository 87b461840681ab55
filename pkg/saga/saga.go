// Package saga 实现编排式Saga：一组各自独立提交的本地事务，失败时逆序补偿
//
// 适用场景：一个请求涉及多个互不包含的事务（例如批量移库时每个单件单独一个事务），
// 不能也不应该用一个大事务包住。任何一步失败，已完成的步骤按相反顺序执行补偿。
package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/stocktrack/pkg/metrics"
)

// Step Saga步骤
type Step struct {
	Name       string                          // 步骤名称（用于日志）
	Action     func(ctx context.Context) error // 正向操作
	Compensate func(ctx context.Context) error // 补偿操作（可为nil）
}

// Saga 编排器，非并发安全，一个实例只执行一次
type Saga struct {
	name     string
	steps    []Step
	executed []Step
	timeout  time.Duration
	logger   *zap.Logger
}

// Error Saga执行失败
type Error struct {
	Step             string  // 失败的步骤
	Cause            error   // 失败原因
	CompensateErrors []error // 补偿过程中出现的错误
}

func (e *Error) Error() string {
	if len(e.CompensateErrors) > 0 {
		return fmt.Sprintf("步骤[%s]执行失败: %v（%d个补偿失败）", e.Step, e.Cause, len(e.CompensateErrors))
	}
	return fmt.Sprintf("步骤[%s]执行失败: %v", e.Step, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Compensated 是否所有补偿都成功
func (e *Error) Compensated() bool {
	return len(e.CompensateErrors) == 0
}

// NewSaga 创建Saga，timeout<=0表示不限制整体耗时
func NewSaga(name string, timeout time.Duration, logger *zap.Logger) *Saga {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Saga{
		name:    name,
		timeout: timeout,
		logger:  logger,
	}
}

// AddStep 追加步骤
func (s *Saga) AddStep(name string, action, compensate func(ctx context.Context) error) {
	s.steps = append(s.steps, Step{
		Name:       name,
		Action:     action,
		Compensate: compensate,
	})
}

// Execute 依次执行所有步骤
// 返回的错误可用errors.As取出*Error查看补偿结果
func (s *Saga) Execute(ctx context.Context) error {
	start := time.Now()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	for _, step := range s.steps {
		err := ctx.Err()
		if err == nil && step.Action != nil {
			err = step.Action(ctx)
		}
		if err != nil {
			// 补偿使用独立的context，避免原context已超时导致补偿也失败
			sagaErr := &Error{Step: step.Name, Cause: err}
			sagaErr.CompensateErrors = s.compensate(context.WithoutCancel(ctx))

			s.logger.Warn("saga执行失败，已补偿",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.Error(err),
				zap.Int("compensate_errors", len(sagaErr.CompensateErrors)))
			metrics.IncCounterVec(metrics.SagaExecutionsTotal, map[string]string{"result": "failure"})
			metrics.ObserveHistogram(metrics.SagaExecutionDuration, time.Since(start).Seconds())
			return sagaErr
		}
		s.executed = append(s.executed, step)
	}

	metrics.IncCounterVec(metrics.SagaExecutionsTotal, map[string]string{"result": "success"})
	metrics.ObserveHistogram(metrics.SagaExecutionDuration, time.Since(start).Seconds())
	return nil
}

// compensate 逆序执行已完成步骤的补偿，单个补偿失败不影响其余补偿
func (s *Saga) compensate(ctx context.Context) []error {
	var errs []error
	for i := len(s.executed) - 1; i >= 0; i-- {
		step := s.executed[i]
		if step.Compensate == nil {
			continue
		}
		metrics.IncCounter(metrics.SagaCompensationsTotal)
		if err := step.Compensate(ctx); err != nil {
			s.logger.Error("saga补偿失败",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("补偿[%s]: %w", step.Name, err))
		}
	}
	s.executed = nil
	return errs
}

// IsSagaError 判断是否为Saga执行错误
func IsSagaError(err error) bool {
	var sagaErr *Error
	return errors.As(err, &sagaErr)
}
