package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/xiebiao/stocktrack/internal/domain/stock"
)

// CounterRepository 序号计数器(内存实现)
type CounterRepository struct {
	store *Store
}

// NewCounterRepository 创建计数器仓储
func NewCounterRepository(store *Store) *CounterRepository {
	return &CounterRepository{store: store}
}

func (r *CounterRepository) NextValue(ctx context.Context, itemID uint) (int64, error) {
	var next int64
	err := r.store.do(ctx, func(t *tables) error {
		next = t.counters[itemID] + 1
		t.counters[itemID] = next
		return nil
	})
	return next, err
}

func (r *CounterRepository) Current(ctx context.Context, itemID uint) (int64, error) {
	var current int64
	err := r.store.do(ctx, func(t *tables) error {
		current = t.counters[itemID]
		return nil
	})
	return current, err
}

func (r *CounterRepository) RaiseTo(ctx context.Context, itemID uint, value int64) error {
	return r.store.do(ctx, func(t *tables) error {
		if t.counters[itemID] < value {
			t.counters[itemID] = value
		}
		return nil
	})
}

// PoolRepository 条码池(内存实现)
type PoolRepository struct {
	store *Store
}

// NewPoolRepository 创建条码池仓储
func NewPoolRepository(store *Store) *PoolRepository {
	return &PoolRepository{store: store}
}

func (r *PoolRepository) Create(ctx context.Context, pb *stock.PoolBarcode) error {
	return r.store.do(ctx, func(t *tables) error {
		return t.insertBarcode(pb)
	})
}

func (r *PoolRepository) CreateBatch(ctx context.Context, barcodes []*stock.PoolBarcode) error {
	// 批量写入要么全成功要么全不写
	return r.store.Transaction(ctx, func(ctx context.Context) error {
		return r.store.do(ctx, func(t *tables) error {
			for _, pb := range barcodes {
				if err := t.insertBarcode(pb); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

func (t *tables) insertBarcode(pb *stock.PoolBarcode) error {
	for _, existing := range t.barcodes {
		if existing.Barcode == pb.Barcode {
			return stock.ErrDuplicateBarcode
		}
	}
	pb.ID = t.nextID()
	t.barcodes[pb.ID] = *pb
	return nil
}

func (r *PoolRepository) FindByBarcode(ctx context.Context, barcode string) (*stock.PoolBarcode, error) {
	var out *stock.PoolBarcode
	err := r.store.do(ctx, func(t *tables) error {
		for _, pb := range t.barcodes {
			if pb.Barcode == barcode {
				cp := pb
				out = &cp
				return nil
			}
		}
		return stock.ErrBarcodeNotFound
	})
	return out, err
}

func (r *PoolRepository) LockByID(ctx context.Context, id uint) (*stock.PoolBarcode, error) {
	var out *stock.PoolBarcode
	err := r.store.do(ctx, func(t *tables) error {
		pb, ok := t.barcodes[id]
		if !ok {
			return stock.ErrBarcodeNotFound
		}
		out = &pb
		return nil
	})
	return out, err
}

func (r *PoolRepository) LockFirstAvailable(ctx context.Context, itemID uint) (*stock.PoolBarcode, error) {
	var out *stock.PoolBarcode
	err := r.store.do(ctx, func(t *tables) error {
		for _, pb := range t.barcodes {
			if pb.ItemID != itemID || pb.InUse {
				continue
			}
			if out == nil || pb.ID < out.ID {
				cp := pb
				out = &cp
			}
		}
		if out == nil {
			return stock.ErrNoAvailableBarcode
		}
		return nil
	})
	return out, err
}

func (r *PoolRepository) MarkInUse(ctx context.Context, id uint, at time.Time) error {
	return r.store.do(ctx, func(t *tables) error {
		pb, ok := t.barcodes[id]
		if !ok {
			return stock.ErrBarcodeNotFound
		}
		if pb.InUse {
			return stock.ErrConcurrencyConflict
		}
		pb.InUse = true
		pb.LastUsedAt = &at
		t.barcodes[id] = pb
		return nil
	})
}

func (r *PoolRepository) Release(ctx context.Context, id uint, at time.Time) error {
	return r.store.do(ctx, func(t *tables) error {
		pb, ok := t.barcodes[id]
		if !ok {
			return stock.ErrBarcodeNotFound
		}
		pb.InUse = false
		pb.LastUsedAt = &at
		t.barcodes[id] = pb
		return nil
	})
}

func (r *PoolRepository) Count(ctx context.Context, itemID uint) (int64, int64, error) {
	var total, inUse int64
	err := r.store.do(ctx, func(t *tables) error {
		for _, pb := range t.barcodes {
			if pb.ItemID != itemID {
				continue
			}
			total++
			if pb.InUse {
				inUse++
			}
		}
		return nil
	})
	return total, inUse, err
}

// AggregateRepository 库存记录(内存实现)
type AggregateRepository struct {
	store *Store
}

// NewAggregateRepository 创建库存记录仓储
func NewAggregateRepository(store *Store) *AggregateRepository {
	return &AggregateRepository{store: store}
}

func (r *AggregateRepository) FindOrCreate(ctx context.Context, itemID, locationID uint, now time.Time) (*stock.Aggregate, error) {
	var out *stock.Aggregate
	err := r.store.do(ctx, func(t *tables) error {
		if agg, ok := t.findAggregate(itemID, locationID); ok {
			out = &agg
			return nil
		}
		agg := stock.Aggregate{
			ID:         t.nextID(),
			ItemID:     itemID,
			LocationID: locationID,
			AddedAt:    now,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		t.aggregates[agg.ID] = agg
		out = &agg
		return nil
	})
	return out, err
}

func (r *AggregateRepository) LockByItemAndLocation(ctx context.Context, itemID, locationID uint) (*stock.Aggregate, error) {
	return r.FindByItemAndLocation(ctx, itemID, locationID)
}

func (r *AggregateRepository) FindByItemAndLocation(ctx context.Context, itemID, locationID uint) (*stock.Aggregate, error) {
	var out *stock.Aggregate
	err := r.store.do(ctx, func(t *tables) error {
		agg, ok := t.findAggregate(itemID, locationID)
		if !ok {
			return stock.ErrAggregateNotFound
		}
		out = &agg
		return nil
	})
	return out, err
}

func (t *tables) findAggregate(itemID, locationID uint) (stock.Aggregate, bool) {
	for _, agg := range t.aggregates {
		if agg.ItemID == itemID && agg.LocationID == locationID {
			return agg, true
		}
	}
	return stock.Aggregate{}, false
}

func (r *AggregateRepository) Refresh(ctx context.Context, id uint) (*stock.Aggregate, error) {
	var out *stock.Aggregate
	err := r.store.do(ctx, func(t *tables) error {
		agg, ok := t.aggregates[id]
		if !ok {
			return stock.ErrAggregateNotFound
		}
		qty := 0
		var oldest time.Time
		for _, u := range t.units {
			if u.AggregateID != id {
				continue
			}
			qty++
			if oldest.IsZero() || u.AddedAt.Before(oldest) {
				oldest = u.AddedAt
			}
		}
		agg.Quantity = qty
		if qty > 0 {
			agg.AddedAt = oldest
		}
		agg.UpdatedAt = time.Now()
		t.aggregates[id] = agg
		out = &agg
		return nil
	})
	return out, err
}

// Delete 删除库存记录,级联删除其下单件
func (r *AggregateRepository) Delete(ctx context.Context, id uint) error {
	return r.store.do(ctx, func(t *tables) error {
		if _, ok := t.aggregates[id]; !ok {
			return stock.ErrAggregateNotFound
		}
		for uid, u := range t.units {
			if u.AggregateID == id {
				delete(t.units, uid)
			}
		}
		delete(t.aggregates, id)
		return nil
	})
}

func (r *AggregateRepository) ListEntriesByItem(ctx context.Context, itemID uint) ([]*stock.Entry, error) {
	return r.entries(ctx, func(a stock.Aggregate) bool { return a.ItemID == itemID }, byAddedAtAsc)
}

func (r *AggregateRepository) ListEntriesByLocation(ctx context.Context, locationID uint) ([]*stock.Entry, error) {
	return r.entries(ctx, func(a stock.Aggregate) bool { return a.LocationID == locationID }, byAddedAtAsc)
}

func (r *AggregateRepository) Search(ctx context.Context, params stock.SearchParams) ([]*stock.Entry, int64, error) {
	params = params.Normalize()
	keyword := strings.ToLower(strings.TrimSpace(params.Keyword))

	var all []*stock.Entry
	err := r.store.do(ctx, func(t *tables) error {
		for _, agg := range t.aggregates {
			e := t.entry(agg)
			if keyword == "" || containsFold(e.ItemName, keyword) ||
				containsFold(e.ItemBarcode, keyword) || containsFold(e.LocationName, keyword) {
				all = append(all, e)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].AddedAt.Equal(all[j].AddedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].AddedAt.After(all[j].AddedAt)
	})
	return page(all, (params.Page-1)*params.PageSize, params.PageSize), int64(len(all)), nil
}

func (r *AggregateRepository) ListByAge(ctx context.Context, pageNum, pageSize int) ([]*stock.Entry, int64, error) {
	all, err := r.entries(ctx, func(stock.Aggregate) bool { return true }, byAddedAtAsc)
	if err != nil {
		return nil, 0, err
	}
	p := stock.SearchParams{Page: pageNum, PageSize: pageSize}.Normalize()
	return page(all, (p.Page-1)*p.PageSize, p.PageSize), int64(len(all)), nil
}

func (r *AggregateRepository) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := r.store.do(ctx, func(t *tables) error {
		for _, agg := range t.aggregates {
			if agg.AddedAt.Before(cutoff) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func byAddedAtAsc(a, b *stock.Entry) bool {
	if a.AddedAt.Equal(b.AddedAt) {
		return a.ID < b.ID
	}
	return a.AddedAt.Before(b.AddedAt)
}

func (r *AggregateRepository) entries(ctx context.Context, keep func(stock.Aggregate) bool, less func(a, b *stock.Entry) bool) ([]*stock.Entry, error) {
	var out []*stock.Entry
	err := r.store.do(ctx, func(t *tables) error {
		for _, agg := range t.aggregates {
			if keep(agg) {
				out = append(out, t.entry(agg))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out, err
}

func (t *tables) entry(agg stock.Aggregate) *stock.Entry {
	e := &stock.Entry{Aggregate: agg}
	if item, ok := t.items[agg.ItemID]; ok {
		e.ItemBarcode = item.Barcode
		e.ItemName = item.Name
	}
	if loc, ok := t.locations[agg.LocationID]; ok {
		e.LocationBarcode = loc.Barcode
		e.LocationName = loc.Name
	}
	return e
}

// UnitRepository 单件(内存实现)
type UnitRepository struct {
	store *Store
}

// NewUnitRepository 创建单件仓储
func NewUnitRepository(store *Store) *UnitRepository {
	return &UnitRepository{store: store}
}

func (r *UnitRepository) Create(ctx context.Context, unit *stock.Unit) error {
	return r.store.do(ctx, func(t *tables) error {
		for _, existing := range t.units {
			if existing.ItemID == unit.ItemID && existing.SequenceNumber == unit.SequenceNumber {
				return stock.ErrSequenceCollision
			}
		}
		pb, ok := t.barcodes[unit.PoolBarcodeID]
		if !ok {
			return stock.ErrBarcodeNotFound
		}
		unit.ID = t.nextID()
		unit.Barcode = pb.Barcode
		t.units[unit.ID] = *unit
		return nil
	})
}

func (r *UnitRepository) FindByBarcode(ctx context.Context, barcode string) (*stock.Unit, error) {
	var out *stock.Unit
	err := r.store.do(ctx, func(t *tables) error {
		for _, u := range t.units {
			if u.Barcode == barcode {
				cp := u
				out = &cp
				return nil
			}
		}
		return stock.ErrUnitNotFound
	})
	return out, err
}

func (r *UnitRepository) SelectForRemoval(ctx context.Context, aggregateID uint, policy stock.RemovalPolicy) (*stock.Unit, error) {
	units, err := r.ListByAggregate(ctx, aggregateID)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, stock.ErrUnitNotFound
	}
	if policy == stock.PolicyLIFO {
		return units[len(units)-1], nil
	}
	return units[0], nil
}

func (r *UnitRepository) Delete(ctx context.Context, id uint) error {
	return r.store.do(ctx, func(t *tables) error {
		if _, ok := t.units[id]; !ok {
			return stock.ErrUnitNotFound
		}
		delete(t.units, id)
		return nil
	})
}

func (r *UnitRepository) ListByAggregate(ctx context.Context, aggregateID uint) ([]*stock.Unit, error) {
	var out []*stock.Unit
	err := r.store.do(ctx, func(t *tables) error {
		for _, u := range t.units {
			if u.AggregateID == aggregateID {
				cp := u
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].AddedAt.Before(out[j].AddedAt)
	})
	return out, err
}
