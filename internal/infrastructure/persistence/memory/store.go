// Package memory 进程内存储
//
// 实现与mysql包相同的仓储接口和唯一约束,用于单元测试和database.driver=memory的单机演示。
// 整个Store一把互斥锁:事务期间独占,提交前出错则整体回滚到事务开始时的快照。
package memory

import (
	"context"
	"sync"

	"github.com/xiebiao/stocktrack/internal/domain/catalog"
	"github.com/xiebiao/stocktrack/internal/domain/stock"
)

type tables struct {
	items      map[uint]catalog.Item
	locations  map[uint]catalog.Location
	categories map[uint]catalog.Category
	counters   map[uint]int64 // item_id → last_value
	barcodes   map[uint]stock.PoolBarcode
	aggregates map[uint]stock.Aggregate
	units      map[uint]stock.Unit
	lastID     uint
}

func newTables() *tables {
	return &tables{
		items:      map[uint]catalog.Item{},
		locations:  map[uint]catalog.Location{},
		categories: map[uint]catalog.Category{},
		counters:   map[uint]int64{},
		barcodes:   map[uint]stock.PoolBarcode{},
		aggregates: map[uint]stock.Aggregate{},
		units:      map[uint]stock.Unit{},
	}
}

// nextID 所有表共用一个自增序列,id仍然单调递增
func (t *tables) nextID() uint {
	t.lastID++
	return t.lastID
}

func (t *tables) clone() *tables {
	c := &tables{
		items:      make(map[uint]catalog.Item, len(t.items)),
		locations:  make(map[uint]catalog.Location, len(t.locations)),
		categories: make(map[uint]catalog.Category, len(t.categories)),
		counters:   make(map[uint]int64, len(t.counters)),
		barcodes:   make(map[uint]stock.PoolBarcode, len(t.barcodes)),
		aggregates: make(map[uint]stock.Aggregate, len(t.aggregates)),
		units:      make(map[uint]stock.Unit, len(t.units)),
		lastID:     t.lastID,
	}
	// 结构体按值存储;指针字段(CategoryID、LastUsedAt)只整体替换,不原地修改
	for k, v := range t.items {
		c.items[k] = v
	}
	for k, v := range t.locations {
		c.locations[k] = v
	}
	for k, v := range t.categories {
		c.categories[k] = v
	}
	for k, v := range t.counters {
		c.counters[k] = v
	}
	for k, v := range t.barcodes {
		c.barcodes[k] = v
	}
	for k, v := range t.aggregates {
		c.aggregates[k] = v
	}
	for k, v := range t.units {
		c.units[k] = v
	}
	return c
}

// Store 内存存储
type Store struct {
	mu   sync.Mutex
	data *tables
}

// NewStore 创建空存储
func NewStore() *Store {
	return &Store{data: newTables()}
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// Transaction 独占执行fn,出错回滚
// 已在本Store事务中的ctx直接复用外层事务
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	txCtx := context.WithValue(ctx, txKey{}, s)

	committed := false
	defer func() {
		if !committed {
			s.data = snapshot
		}
	}()

	if err := fn(txCtx); err != nil {
		return err
	}
	committed = true
	return nil
}

// do 在事务内直接访问数据,事务外单次加锁
func (s *Store) do(ctx context.Context, fn func(t *tables) error) error {
	if s.inTx(ctx) {
		return fn(s.data)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// Ping 内存存储总是可用
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Counts 各表行数(状态接口使用)
func (s *Store) Counts(ctx context.Context) (locations, items, aggregates, units int64, err error) {
	err = s.do(ctx, func(t *tables) error {
		locations = int64(len(t.locations))
		items = int64(len(t.items))
		aggregates = int64(len(t.aggregates))
		units = int64(len(t.units))
		return nil
	})
	return
}

var (
	_ catalog.ItemRepository     = (*ItemRepository)(nil)
	_ catalog.LocationRepository = (*LocationRepository)(nil)
	_ catalog.CategoryRepository = (*CategoryRepository)(nil)
	_ stock.CounterRepository    = (*CounterRepository)(nil)
	_ stock.PoolRepository       = (*PoolRepository)(nil)
	_ stock.AggregateRepository  = (*AggregateRepository)(nil)
	_ stock.UnitRepository       = (*UnitRepository)(nil)
	_ stock.Transactor           = (*Store)(nil)
)
