package stock

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/stocktrack/internal/domain/catalog"
	"github.com/xiebiao/stocktrack/pkg/metrics"
)

const (
	// DefaultPoolTarget 预热条码池的默认目标大小
	DefaultPoolTarget = 50
	maxPoolTarget     = 10000
)

// 条码分配来源
const (
	AllocationReused = "reused" // 复用池中可用条码
	AllocationMinted = "minted" // 计数器新铸条码
	AllocationLegacy = "legacy" // 复用物品原条码
)

// Pool 条码池
//
// 分配规则(同一事务内):
//  1. 有调用方指定的条码且可用,直接占用(移库时沿用原标签)
//  2. 否则占用该物品id最小的可用条码(先复用再新铸,池大小不会随周转无限增长)
//  3. 都没有才向计数器要下一个序号,铸造{物品条码}-{序号:05d}
//
// Allocate/Release不开事务,必须在调用方的事务ctx中执行;
// Stats/EnsureMinimumSize是独立操作。
type Pool struct {
	barcodes PoolRepository
	counters CounterRepository
	items    catalog.ItemRepository
	tx       Transactor
	retries  int
	now      func() time.Time
}

// NewPool 创建条码池服务
func NewPool(barcodes PoolRepository, counters CounterRepository, items catalog.ItemRepository, tx Transactor, opts Options) *Pool {
	opts = opts.withDefaults()
	return &Pool{
		barcodes: barcodes,
		counters: counters,
		items:    items,
		tx:       tx,
		retries:  opts.TransactionRetries,
		now:      opts.Now,
	}
}

// Allocate 为物品分配一个条码并标记为占用
// preferredID为0表示不指定
func (p *Pool) Allocate(ctx context.Context, item *catalog.Item, preferredID uint) (*PoolBarcode, string, error) {
	now := p.now()

	if preferredID != 0 {
		pb, err := p.barcodes.LockByID(ctx, preferredID)
		switch {
		case err == nil && pb.ItemID == item.ID && !pb.InUse:
			if err := p.barcodes.MarkInUse(ctx, pb.ID, now); err != nil {
				return nil, "", err
			}
			kind := allocationKind(pb, item)
			metrics.IncCounterVec(metrics.BarcodeAllocationsTotal, map[string]string{"result": kind})
			return claimed(pb, now), kind, nil
		case err != nil && !errors.Is(err, ErrBarcodeNotFound):
			return nil, "", err
		}
	}

	// 1. 复用
	pb, err := p.barcodes.LockFirstAvailable(ctx, item.ID)
	if err == nil {
		if err := p.barcodes.MarkInUse(ctx, pb.ID, now); err != nil {
			return nil, "", err
		}
		kind := allocationKind(pb, item)
		metrics.IncCounterVec(metrics.BarcodeAllocationsTotal, map[string]string{"result": kind})
		return claimed(pb, now), kind, nil
	}
	if !errors.Is(err, ErrNoAvailableBarcode) {
		return nil, "", err
	}

	// 2. 新铸
	seq, err := p.counters.NextValue(ctx, item.ID)
	if err != nil {
		return nil, "", err
	}
	pb = &PoolBarcode{
		ItemID:     item.ID,
		Barcode:    FormatBarcode(item.Barcode, seq),
		InUse:      true,
		LastUsedAt: &now,
		CreatedAt:  now,
	}
	if err := p.barcodes.Create(ctx, pb); err != nil {
		if errors.Is(err, ErrDuplicateBarcode) {
			// 计数器保证新序号从未铸造过,撞上说明数据已被破坏
			reportViolation(ctx, "sequence_collision", err,
				zap.Uint("item_id", item.ID), zap.String("barcode", pb.Barcode))
			return nil, "", ErrSequenceCollision.WithCause(err)
		}
		return nil, "", err
	}
	metrics.IncCounterVec(metrics.BarcodeAllocationsTotal, map[string]string{"result": AllocationMinted})
	return pb, AllocationMinted, nil
}

func claimed(pb *PoolBarcode, now time.Time) *PoolBarcode {
	out := *pb
	out.InUse = true
	out.LastUsedAt = &now
	return &out
}

func allocationKind(pb *PoolBarcode, item *catalog.Item) string {
	if pb.IsLegacy(item.Barcode) {
		return AllocationLegacy
	}
	return AllocationReused
}

// Release 归还条码(置为可用),不删除
func (p *Pool) Release(ctx context.Context, barcodeID uint) error {
	return p.barcodes.Release(ctx, barcodeID, p.now())
}

// Stats 条码池统计(只读)
func (p *Pool) Stats(ctx context.Context, item *catalog.Item) (PoolStats, error) {
	total, inUse, err := p.barcodes.Count(ctx, item.ID)
	if err != nil {
		return PoolStats{}, err
	}
	stats := NewPoolStats(item.ID, total, inUse)
	metrics.ObserveHistogram(metrics.PoolUtilization, stats.UtilizationPercent)
	return stats, nil
}

// EnsureMinimumSize 预热条码池到至少target个条码
// 只补不删,新条码均为可用状态;返回本次新建的数量
func (p *Pool) EnsureMinimumSize(ctx context.Context, item *catalog.Item, target int) (int, error) {
	if target <= 0 || target > maxPoolTarget {
		return 0, ErrInvalidTarget
	}

	var created int
	err := runInTx(ctx, p.tx, p.retries, "ensure_pool_size", func(ctx context.Context) error {
		created = 0
		locked, err := p.items.LockByID(ctx, item.ID)
		if err != nil {
			return err
		}

		total, _, err := p.barcodes.Count(ctx, locked.ID)
		if err != nil {
			return err
		}
		needed := int64(target) - total
		if needed <= 0 {
			return nil
		}

		now := p.now()
		batch := make([]*PoolBarcode, 0, needed)
		for i := int64(0); i < needed; i++ {
			seq, err := p.counters.NextValue(ctx, locked.ID)
			if err != nil {
				return err
			}
			batch = append(batch, &PoolBarcode{
				ItemID:    locked.ID,
				Barcode:   FormatBarcode(locked.Barcode, seq),
				CreatedAt: now,
			})
		}
		if err := p.barcodes.CreateBatch(ctx, batch); err != nil {
			return err
		}
		created = len(batch)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// materializeLegacy 物品原条码第一次在单件粒度被使用时登记进条码池
// 只在计数器仍为0时登记(此时不存在-00001,序号1不会冲突),并把计数器抬到1
// 需在事务ctx中调用
func (p *Pool) materializeLegacy(ctx context.Context, item *catalog.Item) (*PoolBarcode, bool, error) {
	existing, err := p.barcodes.FindByBarcode(ctx, item.Barcode)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrBarcodeNotFound) {
		return nil, false, err
	}

	current, err := p.counters.Current(ctx, item.ID)
	if err != nil {
		return nil, false, err
	}
	if current != 0 {
		return nil, false, nil
	}

	now := p.now()
	pb := &PoolBarcode{ItemID: item.ID, Barcode: item.Barcode, CreatedAt: now}
	if err := p.barcodes.Create(ctx, pb); err != nil {
		return nil, false, err
	}
	if err := p.counters.RaiseTo(ctx, item.ID, 1); err != nil {
		return nil, false, err
	}
	metrics.IncCounterVec(metrics.BarcodesMaterializedTotal, map[string]string{"kind": "legacy"})
	return pb, true, nil
}

// materializeScanned 把扫到的、符合生成形状的条码登记为可用条码
//
// 设计说明:
//  1. 池中条码从不删除,扫到的条码不在池中就说明这个序号从未铸造过,
//     唯一可能占着它的是原条码(序号1),此时不登记
//  2. 乱序扫描(先-00007后-00003)时较小的序号同样登记,计数器只增不减,
//     之后新铸从计数器往后走,不会撞上
//
// 需在事务ctx中调用
func (p *Pool) materializeScanned(ctx context.Context, item *catalog.Item, scanned string, seq int64) (*PoolBarcode, bool, error) {
	existing, err := p.barcodes.FindByBarcode(ctx, scanned)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrBarcodeNotFound) {
		return nil, false, err
	}

	if seq == 1 {
		legacy, err := p.barcodes.FindByBarcode(ctx, item.Barcode)
		switch {
		case err == nil && legacy.ItemID == item.ID:
			return nil, false, nil
		case err != nil && !errors.Is(err, ErrBarcodeNotFound):
			return nil, false, err
		}
	}

	pb := &PoolBarcode{ItemID: item.ID, Barcode: scanned, CreatedAt: p.now()}
	if err := p.barcodes.Create(ctx, pb); err != nil {
		return nil, false, err
	}
	if err := p.counters.RaiseTo(ctx, item.ID, seq); err != nil {
		return nil, false, err
	}
	metrics.IncCounterVec(metrics.BarcodesMaterializedTotal, map[string]string{"kind": "scanned"})
	return pb, true, nil
}
