package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xiebiao/stocktrack/internal/domain/stock"
	apperrors "github.com/xiebiao/stocktrack/pkg/errors"
	"github.com/xiebiao/stocktrack/pkg/logger"
	"github.com/xiebiao/stocktrack/pkg/saga"
)

const (
	maxBatchSize     = 100
	moveBatchTimeout = 30 * time.Second
)

var (
	// ErrEmptyBatch 批量移库没有单件
	ErrEmptyBatch = apperrors.New(apperrors.ErrCodeValidationFailed, "至少需要一个单件条码")

	// ErrBatchTooLarge 单次批量过大
	ErrBatchTooLarge = apperrors.New(apperrors.ErrCodeValidationFailed, fmt.Sprintf("单次最多移动%d件", maxBatchSize))

	// ErrDuplicateInBatch 同一条码出现多次
	ErrDuplicateInBatch = apperrors.New(apperrors.ErrCodeValidationFailed, "单件条码重复")

	// ErrBatchRollbackIncomplete 中途失败且有单件未能移回原库位
	ErrBatchRollbackIncomplete = apperrors.New(apperrors.ErrCodeConsistency, "批量移库失败,部分单件未能移回原库位")
)

// MoveBatchUseCase 批量移库用例
// 设计说明:
// 1. 每个单件单独一个事务,不用一个大事务锁住所有物品行
// 2. 任何一件失败,已完成的单件按相反顺序移回原库位(沿用原入库时间)
// 3. 全部成功后才发布unit.moved事件,回滚的移动不对外可见
type MoveBatchUseCase struct {
	move *MoveUnitUseCase
}

// NewMoveBatchUseCase 创建批量移库用例
func NewMoveBatchUseCase(move *MoveUnitUseCase) *MoveBatchUseCase {
	return &MoveBatchUseCase{move: move}
}

// MoveBatchRequest 批量移库请求DTO
type MoveBatchRequest struct {
	UnitBarcodes      []string
	ToLocationBarcode string
}

// MoveBatchResponse 批量移库响应DTO
type MoveBatchResponse struct {
	Moved []*MoveUnitResponse `json:"moved"`
	Count int                 `json:"count"`
}

// Execute 执行批量移库
func (uc *MoveBatchUseCase) Execute(ctx context.Context, req MoveBatchRequest) (resp *MoveBatchResponse, err error) {
	ctx, done := observe(ctx, "move_batch",
		attribute.Int("units", len(req.UnitBarcodes)),
		attribute.String("to_location_barcode", req.ToLocationBarcode))
	defer func() { done(err) }()

	// 1. 参数校验
	barcodes, err := normalizeBatch(req.UnitBarcodes)
	if err != nil {
		return nil, err
	}

	// 2. 每件一个步骤,补偿为移回原库位
	log := logger.FromContext(ctx)
	moved := make([]*MoveUnitResponse, len(barcodes))
	s := saga.NewSaga("move_batch", moveBatchTimeout, log)
	for i, barcode := range barcodes {
		s.AddStep(barcode,
			func(ctx context.Context) error {
				r, err := uc.move.move(ctx, barcode, req.ToLocationBarcode, false)
				if err != nil {
					return err
				}
				moved[i] = r
				return nil
			},
			func(ctx context.Context) error {
				r := moved[i]
				_, err := uc.move.move(ctx, r.UnitBarcode, r.From.Barcode, false)
				return err
			},
		)
	}

	if err := s.Execute(ctx); err != nil {
		var sagaErr *saga.Error
		if errors.As(err, &sagaErr) && !sagaErr.Compensated() {
			log.Error("move batch rollback incomplete",
				zap.String("failed_unit", sagaErr.Step),
				zap.Errors("compensate_errors", sagaErr.CompensateErrors))
			return nil, ErrBatchRollbackIncomplete.WithCause(err)
		}
		return nil, err
	}

	// 3. 全部成功,发布事件
	for _, r := range moved {
		uc.move.publisher.Publish(ctx, uc.move.movedEvent(ctx, r))
	}
	return &MoveBatchResponse{Moved: moved, Count: len(moved)}, nil
}

func normalizeBatch(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(raw) > maxBatchSize {
		return nil, ErrBatchTooLarge
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, b := range raw {
		b = trimmed(b)
		if b == "" {
			return nil, stock.ErrEmptyBarcode
		}
		if _, ok := seen[b]; ok {
			return nil, ErrDuplicateInBatch.WithCause(fmt.Errorf("条码%s重复", b))
		}
		seen[b] = struct{}{}
		out = append(out, b)
	}
	return out, nil
}
