package stock

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/stocktrack/internal/domain/catalog"
	"github.com/xiebiao/stocktrack/pkg/metrics"
)

// Options 库存服务参数
type Options struct {
	// TransactionRetries 并发冲突时整体重试事务的次数
	TransactionRetries int
	// Now 时钟(测试用),为nil时使用time.Now
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.TransactionRetries < 0 {
		o.TransactionRetries = 0
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Service 库存领域服务:单件入库、出库、移库、历史库存导入
//
// 锁顺序(所有写操作一致,避免死锁):
// 物品行 → 库存记录行 → 条码池行 → 计数器行
// 先锁物品行,同一物品的写操作串行执行,total_quantity重算不会读到一半的状态。
type Service struct {
	tx         Transactor
	items      catalog.ItemRepository
	aggregates AggregateRepository
	units      UnitRepository
	pool       *Pool
	retries    int
	now        func() time.Time
}

// NewService 创建库存领域服务
func NewService(
	tx Transactor,
	items catalog.ItemRepository,
	aggregates AggregateRepository,
	units UnitRepository,
	pool *Pool,
	opts Options,
) *Service {
	opts = opts.withDefaults()
	return &Service{
		tx:         tx,
		items:      items,
		aggregates: aggregates,
		units:      units,
		pool:       pool,
		retries:    opts.TransactionRetries,
		now:        opts.Now,
	}
}

// AddUnitParams 入库参数
type AddUnitParams struct {
	Item     *catalog.Item
	Location *catalog.Location
	// AddedAt 显式入库时间(移库时沿用原时间),nil表示当前时间
	AddedAt *time.Time
	// PreferredBarcodeID 优先占用的池条码(扫到的是一张可用的个体标签时)
	PreferredBarcodeID uint
}

// AddUnitResult 入库结果
type AddUnitResult struct {
	Unit        *Unit
	PoolBarcode *PoolBarcode
	Aggregate   *Aggregate
	Item        *catalog.Item // total_quantity为重算后的值
	Allocation  string        // reused / minted / legacy
}

// IsLegacy 是否占用了物品原条码
func (r *AddUnitResult) IsLegacy() bool {
	return r.PoolBarcode.IsLegacy(r.Item.Barcode)
}

// AddUnit 入库一个单件
func (s *Service) AddUnit(ctx context.Context, params AddUnitParams) (*AddUnitResult, error) {
	var result *AddUnitResult
	err := runInTx(ctx, s.tx, s.retries, "add_unit", func(ctx context.Context) error {
		item, err := s.items.LockByID(ctx, params.Item.ID)
		if err != nil {
			return err
		}
		result, err = s.addLocked(ctx, item, params.Location, params.AddedAt, params.PreferredBarcodeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// addLocked 已持有物品行锁时入库
func (s *Service) addLocked(ctx context.Context, item *catalog.Item, location *catalog.Location, addedAt *time.Time, preferredID uint) (*AddUnitResult, error) {
	now := s.now()

	// 1. 查找或创建库存记录
	agg, err := s.aggregates.FindOrCreate(ctx, item.ID, location.ID, now)
	if err != nil {
		return nil, err
	}

	// 2. 分配条码
	pb, kind, err := s.pool.Allocate(ctx, item, preferredID)
	if err != nil {
		return nil, err
	}

	// 3. 由条码推导序号
	seq, err := SequenceFor(item.Barcode, pb.Barcode)
	if err != nil {
		reportViolation(ctx, "broken_barcode", err, zap.Uint("item_id", item.ID), zap.String("barcode", pb.Barcode))
		return nil, ErrBrokenBarcode.WithCause(err)
	}

	// 4. 创建单件
	unit := &Unit{
		ItemID:         item.ID,
		LocationID:     location.ID,
		AggregateID:    agg.ID,
		PoolBarcodeID:  pb.ID,
		Barcode:        pb.Barcode,
		SequenceNumber: seq,
		AddedAt:        now,
		CreatedAt:      now,
	}
	if addedAt != nil {
		unit.AddedAt = *addedAt
	}
	if err := s.units.Create(ctx, unit); err != nil {
		if errors.Is(err, ErrSequenceCollision) {
			reportViolation(ctx, "sequence_collision", err,
				zap.Uint("item_id", item.ID), zap.Int("sequence_number", seq))
		}
		return nil, err
	}

	// 5. 重算库存记录和物品总数
	agg, err = s.aggregates.Refresh(ctx, agg.ID)
	if err != nil {
		return nil, err
	}
	total, err := s.items.RefreshTotalQuantity(ctx, item.ID)
	if err != nil {
		return nil, err
	}

	refreshed := *item
	refreshed.TotalQuantity = total
	return &AddUnitResult{
		Unit:        unit,
		PoolBarcode: pb,
		Aggregate:   agg,
		Item:        &refreshed,
		Allocation:  kind,
	}, nil
}

// RemoveUnitParams 出库参数
type RemoveUnitParams struct {
	Item     *catalog.Item
	Location *catalog.Location
	Policy   RemovalPolicy
	// TargetBarcode 指定要移除的单件条码,为空则按Policy选择
	TargetBarcode string
	// Scanned 扫码原文;若它正是该库位某个单件持有的条码,则移除这一件
	Scanned string
}

// RemoveUnit 出库一个单件
func (s *Service) RemoveUnit(ctx context.Context, params RemoveUnitParams) (*RemovalResult, error) {
	if params.TargetBarcode == "" && !params.Policy.Valid() {
		return nil, ErrInvalidPolicy
	}

	var result *RemovalResult
	err := runInTx(ctx, s.tx, s.retries, "remove_unit", func(ctx context.Context) error {
		item, err := s.items.LockByID(ctx, params.Item.ID)
		if err != nil {
			return err
		}
		agg, err := s.aggregates.LockByItemAndLocation(ctx, item.ID, params.Location.ID)
		if err != nil {
			return err
		}

		target, err := s.pickTarget(ctx, item, agg, params)
		if err != nil {
			return err
		}

		result, err = s.removeLocked(ctx, item, agg, params.Policy, target)
		return err
	})
	if err != nil {
		// 指定单件不存在时同样尝试登记物品原条码,随后仍报单件不存在
		if params.TargetBarcode != "" && errors.Is(err, ErrUnitNotFound) {
			s.registerLegacy(ctx, params.TargetBarcode)
		}
		return nil, err
	}
	return result, nil
}

// pickTarget 确定指定移除的单件,返回nil表示按策略选择
func (s *Service) pickTarget(ctx context.Context, item *catalog.Item, agg *Aggregate, params RemoveUnitParams) (*Unit, error) {
	if params.TargetBarcode != "" {
		unit, err := s.units.FindByBarcode(ctx, params.TargetBarcode)
		if err != nil {
			return nil, err
		}
		if unit.AggregateID != agg.ID {
			return nil, ErrUnitNotFound
		}
		return unit, nil
	}

	if params.Scanned == "" || params.Scanned == item.Barcode {
		return nil, nil
	}
	unit, err := s.units.FindByBarcode(ctx, params.Scanned)
	if errors.Is(err, ErrUnitNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if unit.AggregateID != agg.ID {
		return nil, nil
	}
	return unit, nil
}

// removeLocked 已持有物品行锁和库存记录行锁时出库
// target为nil时按策略选择
func (s *Service) removeLocked(ctx context.Context, item *catalog.Item, agg *Aggregate, policy RemovalPolicy, target *Unit) (*RemovalResult, error) {
	unit := target
	label := "target"
	if unit == nil {
		var err error
		unit, err = s.units.SelectForRemoval(ctx, agg.ID, policy)
		if errors.Is(err, ErrUnitNotFound) {
			// 空库存记录应在最后一件出库时已删除,保留现场供排查
			reportViolation(ctx, "empty_aggregate", err,
				zap.Uint("aggregate_id", agg.ID), zap.Uint("item_id", agg.ItemID), zap.Uint("location_id", agg.LocationID))
			return nil, ErrEmptyAggregate
		}
		if err != nil {
			return nil, err
		}
		label = string(policy)
	}

	// 1. 销毁前采集
	now := s.now()
	result := &RemovalResult{
		UnitID:         unit.ID,
		AggregateID:    agg.ID,
		ItemID:         item.ID,
		LocationID:     agg.LocationID,
		Barcode:        unit.Barcode,
		SequenceNumber: unit.SequenceNumber,
		WasLegacy:      unit.Barcode == item.Barcode,
		AddedAt:        unit.AddedAt,
		StorageDays:    unit.StorageDays(now),
	}

	// 2. 删除单件 → 归还条码
	if err := s.units.Delete(ctx, unit.ID); err != nil {
		return nil, err
	}
	if err := s.pool.Release(ctx, unit.PoolBarcodeID); err != nil {
		return nil, err
	}

	// 3. 重算库存记录,清空则删除
	remaining, err := s.aggregates.Refresh(ctx, agg.ID)
	if err != nil {
		return nil, err
	}
	if remaining.Quantity == 0 {
		if err := s.aggregates.Delete(ctx, agg.ID); err != nil {
			return nil, err
		}
		result.CompletelyRemoved = true
		metrics.IncCounter(metrics.AggregatesDeletedTotal)
	} else {
		result.Remaining = remaining
	}

	// 4. 重算物品总数
	total, err := s.items.RefreshTotalQuantity(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	result.ItemTotalQuantity = total

	metrics.IncCounterVec(metrics.UnitsRemovedTotal, map[string]string{"policy": label})
	return result, nil
}

// MoveResult 移库结果
type MoveResult struct {
	Removal        *RemovalResult // 来源库位的出库结果(Remaining为来源剩余)
	Added          *AddUnitResult // 目标库位的入库结果
	FromLocationID uint
}

// Move 把一个单件移到另一个库位
// 来源出库与目标入库在同一事务内,入库时间沿用原单件,并优先沿用原条码
func (s *Service) Move(ctx context.Context, unitBarcode string, to *catalog.Location) (*MoveResult, error) {
	if unitBarcode == "" {
		return nil, ErrEmptyBarcode
	}

	// 单件粒度寻址:找不到时尝试登记物品原条码(独立事务,随后仍报单件不存在)
	probe, err := s.units.FindByBarcode(ctx, unitBarcode)
	if errors.Is(err, ErrUnitNotFound) {
		s.registerLegacy(ctx, unitBarcode)
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if probe.LocationID == to.ID {
		return nil, ErrSameLocation
	}

	var result *MoveResult
	err = runInTx(ctx, s.tx, s.retries, "move_unit", func(ctx context.Context) error {
		item, err := s.items.LockByID(ctx, probe.ItemID)
		if err != nil {
			return err
		}

		// 加锁后重新读取,期间可能已被移走
		unit, err := s.units.FindByBarcode(ctx, unitBarcode)
		if err != nil {
			return err
		}
		if unit.LocationID == to.ID {
			return ErrSameLocation
		}
		agg, err := s.aggregates.LockByItemAndLocation(ctx, item.ID, unit.LocationID)
		if err != nil {
			return err
		}

		removal, err := s.removeLocked(ctx, item, agg, "", unit)
		if err != nil {
			return err
		}
		added, err := s.addLocked(ctx, item, to, &removal.AddedAt, unit.PoolBarcodeID)
		if err != nil {
			return err
		}

		result = &MoveResult{Removal: removal, Added: added, FromLocationID: unit.LocationID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// registerLegacy 扫码串恰是某物品原条码时,把原条码登记进条码池
// 失败只记录日志,不影响调用方返回的错误
func (s *Service) registerLegacy(ctx context.Context, barcode string) {
	item, err := s.items.FindByBarcode(ctx, barcode)
	if err != nil {
		return
	}
	err = runInTx(ctx, s.tx, s.retries, "materialize_legacy", func(ctx context.Context) error {
		locked, err := s.items.LockByID(ctx, item.ID)
		if err != nil {
			return err
		}
		_, _, err = s.pool.materializeLegacy(ctx, locked)
		return err
	})
	if err != nil {
		reportMaterializeFailure(ctx, barcode, err)
	}
}

// ImportParams 历史库存导入参数
type ImportParams struct {
	Item     *catalog.Item
	Location *catalog.Location
	Quantity int
	AddedAt  time.Time
}

// ImportResult 导入结果
type ImportResult struct {
	Units     []*Unit
	Aggregate *Aggregate
	Item      *catalog.Item
}

// ImportStock 把按数量记录的历史库存转换为单件
// - 数量为1且物品从未铸造过条码:沿用物品原条码(序号1),计数器抬到1
// - 其余情况每件从条码池分配,第i件的入库时间为AddedAt+i分钟
func (s *Service) ImportStock(ctx context.Context, params ImportParams) (*ImportResult, error) {
	if params.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if params.AddedAt.IsZero() {
		params.AddedAt = s.now()
	}

	var result *ImportResult
	err := runInTx(ctx, s.tx, s.retries, "import_stock", func(ctx context.Context) error {
		item, err := s.items.LockByID(ctx, params.Item.ID)
		if err != nil {
			return err
		}

		units := make([]*Unit, 0, params.Quantity)
		var last *AddUnitResult

		if params.Quantity == 1 {
			pb, ok, err := s.pool.materializeLegacy(ctx, item)
			if err != nil {
				return err
			}
			// 刚登记的原条码是可用状态,作为首选条码分配
			var preferred uint
			if ok {
				preferred = pb.ID
			}
			addedAt := params.AddedAt
			last, err = s.addLocked(ctx, item, params.Location, &addedAt, preferred)
			if err != nil {
				return err
			}
			units = append(units, last.Unit)
		} else {
			for i := 0; i < params.Quantity; i++ {
				addedAt := params.AddedAt.Add(time.Duration(i) * time.Minute)
				last, err = s.addLocked(ctx, item, params.Location, &addedAt, 0)
				if err != nil {
					return err
				}
				units = append(units, last.Unit)
			}
		}

		result = &ImportResult{Units: units, Aggregate: last.Aggregate, Item: last.Item}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListUnits 某库存记录下的全部单件,最早入库在前
func (s *Service) ListUnits(ctx context.Context, itemID, locationID uint) (*Aggregate, []*Unit, error) {
	agg, err := s.aggregates.FindByItemAndLocation(ctx, itemID, locationID)
	if err != nil {
		return nil, nil, err
	}
	units, err := s.units.ListByAggregate(ctx, agg.ID)
	if err != nil {
		return nil, nil, err
	}
	return agg, units, nil
}

// Pool 条码池服务
func (s *Service) Pool() *Pool {
	return s.pool
}

// Now 服务时钟
func (s *Service) Now() time.Time {
	return s.now()
}
