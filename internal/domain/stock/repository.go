package stock

import (
	"context"
	"time"
)

// Transactor 事务边界
// Transaction内的仓储调用通过ctx共享同一事务;在已有事务的ctx上再次调用会直接加入外层事务
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// CounterRepository 每个物品一行的序号计数器
type CounterRepository interface {
	// NextValue 查找或创建计数器(初始0),在行锁下原子自增并返回新值
	// 同一物品的并发调用得到严格递增、不重复的值
	NextValue(ctx context.Context, itemID uint) (int64, error)

	// Current 当前值,计数器不存在时返回0
	Current(ctx context.Context, itemID uint) (int64, error)

	// RaiseTo 把计数器抬高到至少value(只增不减)
	RaiseTo(ctx context.Context, itemID uint, value int64) error
}

// PoolRepository 条码池仓储
type PoolRepository interface {
	// Create 写入一个条码,条码全局唯一,冲突返回ErrDuplicateBarcode
	Create(ctx context.Context, barcode *PoolBarcode) error

	// CreateBatch 批量写入(预热条码池)
	CreateBatch(ctx context.Context, barcodes []*PoolBarcode) error

	FindByBarcode(ctx context.Context, barcode string) (*PoolBarcode, error)

	// LockByID 悲观锁查询单个条码
	LockByID(ctx context.Context, id uint) (*PoolBarcode, error)

	// LockFirstAvailable 锁定该物品id最小的可用条码(FOR UPDATE SKIP LOCKED)
	// 没有可用条码时返回ErrNoAvailableBarcode
	LockFirstAvailable(ctx context.Context, itemID uint) (*PoolBarcode, error)

	// MarkInUse 条件更新 in_use: false → true
	// 未命中(已被别人占用)返回ErrConcurrencyConflict
	MarkInUse(ctx context.Context, id uint, at time.Time) error

	// Release in_use置为false,重复释放结果不变
	Release(ctx context.Context, id uint, at time.Time) error

	// Count 返回该物品条码总数和占用数
	Count(ctx context.Context, itemID uint) (total int64, inUse int64, err error)
}

// AggregateRepository 库存记录仓储
type AggregateRepository interface {
	// FindOrCreate 查找或创建(物品,库位)的库存记录并加行锁
	// 唯一索引兜底,并发创建只会留下一条
	FindOrCreate(ctx context.Context, itemID, locationID uint, now time.Time) (*Aggregate, error)

	// LockByItemAndLocation 加锁查询,不存在返回ErrAggregateNotFound
	LockByItemAndLocation(ctx context.Context, itemID, locationID uint) (*Aggregate, error)

	FindByItemAndLocation(ctx context.Context, itemID, locationID uint) (*Aggregate, error)

	// Refresh 按在库单件重算数量和最早入库时间,写回并返回
	Refresh(ctx context.Context, id uint) (*Aggregate, error)

	Delete(ctx context.Context, id uint) error

	// ListEntriesByItem / ListEntriesByLocation 详情页使用
	ListEntriesByItem(ctx context.Context, itemID uint) ([]*Entry, error)
	ListEntriesByLocation(ctx context.Context, locationID uint) ([]*Entry, error)

	// Search 物品名称/物品条码/库位名称包含关键词,最新入库在前
	Search(ctx context.Context, params SearchParams) ([]*Entry, int64, error)

	// ListByAge 按最早入库时间升序(库龄报表)
	ListByAge(ctx context.Context, page, pageSize int) ([]*Entry, int64, error)

	// CountOlderThan 最早入库时间早于cutoff的库存记录数
	CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// UnitRepository 单件仓储
type UnitRepository interface {
	// Create 写入单件,(item_id, sequence_number)冲突返回ErrSequenceCollision
	Create(ctx context.Context, unit *Unit) error

	// FindByBarcode 按当前持有的条码查找单件
	FindByBarcode(ctx context.Context, barcode string) (*Unit, error)

	// SelectForRemoval 按策略选出待移除单件:
	// fifo取added_at最小(同时间取先创建的),lifo取added_at最大(同时间取后创建的)
	// 库存记录下没有单件时返回ErrUnitNotFound
	SelectForRemoval(ctx context.Context, aggregateID uint, policy RemovalPolicy) (*Unit, error)

	Delete(ctx context.Context, id uint) error

	// ListByAggregate 库存记录下的全部单件,最早入库在前
	ListByAggregate(ctx context.Context, aggregateID uint) ([]*Unit, error)
}

// ResolveCache 扫码解析缓存(扫码串 → 物品ID)
// 物品条码和池条码都不会改绑,缓存无需失效
type ResolveCache interface {
	Get(ctx context.Context, scanned string) (itemID uint, ok bool, err error)
	Set(ctx context.Context, scanned string, itemID uint) error
}

// SearchParams 库存搜索参数
type SearchParams struct {
	Keyword  string
	Page     int
	PageSize int
}

// Normalize 修正分页参数
func (p SearchParams) Normalize() SearchParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	return p
}
