package stock

import (
	apperrors "github.com/xiebiao/stocktrack/pkg/errors"
)

// 库存领域错误定义
var (
	// ErrAggregateNotFound 该库位没有此物品
	ErrAggregateNotFound = apperrors.New(apperrors.ErrCodeAggregateNotFound, "该库位没有此物品")

	// ErrUnitNotFound 单件不存在(或不在指定库位)
	ErrUnitNotFound = apperrors.New(apperrors.ErrCodeUnitNotFound, "单件不存在")

	// ErrBarcodeNotFound 条码池中无此条码
	ErrBarcodeNotFound = apperrors.New(apperrors.ErrCodeBarcodeNotFound, "条码不存在")

	// ErrUnresolved 扫码串无法解析为任何物品
	ErrUnresolved = apperrors.New(apperrors.ErrCodeUnresolved, "无法识别的条码")

	// ErrNoAvailableBarcode 条码池没有可用条码(仓储内部信号,分配时转为新铸)
	ErrNoAvailableBarcode = apperrors.New(apperrors.ErrCodeBarcodeNotFound, "条码池没有可用条码")

	// ErrCounterNotFound 计数器尚未创建
	ErrCounterNotFound = apperrors.New(apperrors.ErrCodeNotFound, "序号计数器不存在")

	// ErrDuplicateBarcode 条码池唯一索引冲突
	ErrDuplicateBarcode = apperrors.New(apperrors.ErrCodeDuplicateEntry, "条码已存在")

	// ErrSequenceCollision 同一物品的单件序号重复(计数器保证下不应出现)
	ErrSequenceCollision = apperrors.New(apperrors.ErrCodeSequenceCollision, "单件序号冲突")

	// ErrEmptyAggregate 库存记录下没有任何单件(应在最后一件出库时已删除)
	ErrEmptyAggregate = apperrors.New(apperrors.ErrCodeEmptyAggregate, "库存记录为空")

	// ErrSameLocation 移库目标与当前库位相同
	ErrSameLocation = apperrors.New(apperrors.ErrCodeSameLocation, "目标库位与当前库位相同")

	// ErrInvalidQuantity 数量必须大于0
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeValidationFailed, "数量必须大于0")

	// ErrInvalidPolicy 未知的出库策略
	ErrInvalidPolicy = apperrors.New(apperrors.ErrCodeValidationFailed, "出库策略只能是fifo或lifo")

	// ErrInvalidTarget 目标大小不合法
	ErrInvalidTarget = apperrors.New(apperrors.ErrCodeValidationFailed, "条码池目标大小必须大于0且不超过10000")

	// ErrEmptyBarcode 条码为空
	ErrEmptyBarcode = apperrors.New(apperrors.ErrCodeValidationFailed, "条码不能为空")

	// ErrConcurrencyConflict 并发冲突(死锁、锁等待超时、条件更新落空)
	// 由事务整体重试一次,仍失败则转为ErrTransient
	ErrConcurrencyConflict = apperrors.New(apperrors.ErrCodeTransient, "并发冲突")

	// ErrBrokenBarcode 池中条码无法推导序号
	ErrBrokenBarcode = apperrors.New(apperrors.ErrCodeConsistency, "条码格式损坏")
)
