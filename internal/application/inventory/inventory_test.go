package inventory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/stocktrack/internal/domain/catalog"
	"github.com/xiebiao/stocktrack/internal/domain/stock"
	"github.com/xiebiao/stocktrack/internal/infrastructure/config"
	"github.com/xiebiao/stocktrack/internal/infrastructure/messaging"
	"github.com/xiebiao/stocktrack/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/stocktrack/pkg/jwt"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recorder struct {
	mu     sync.Mutex
	events []*messaging.Event
}

func (r *recorder) Publish(_ context.Context, e *messaging.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *recorder) last() *messaging.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

type env struct {
	clock   *fakeClock
	events  *recorder
	catalog catalog.Service

	add       *AddUnitUseCase
	remove    *RemoveUnitUseCase
	move      *MoveUnitUseCase
	moveBatch *MoveBatchUseCase
	importer  *ImportStockUseCase
	resolve   *ResolveBarcodeUseCase
	pool      *PoolUseCase
	listUnits *ListUnitsUseCase
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	items := memory.NewItemRepository(store)
	locations := memory.NewLocationRepository(store)
	barcodes := memory.NewPoolRepository(store)

	e := &env{
		clock:  &fakeClock{now: time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC)},
		events: &recorder{},
	}
	opts := stock.Options{TransactionRetries: 1, Now: e.clock.Now}
	pool := stock.NewPool(barcodes, memory.NewCounterRepository(store), items, store, opts)
	svc := stock.NewService(store, items, memory.NewAggregateRepository(store), memory.NewUnitRepository(store), pool, opts)
	resolver := stock.NewResolver(items, barcodes, pool, nil, store, opts)
	e.catalog = catalog.NewService(items, locations, memory.NewCategoryRepository(store))

	presentation, err := config.PresentationConfig{Preset: config.PresetFrozenFood}.Resolve()
	require.NoError(t, err)
	settings := Settings{DefaultPolicy: stock.PolicyFIFO, DefaultPoolSize: 5}

	e.add = NewAddUnitUseCase(e.catalog, resolver, svc, e.events)
	e.remove = NewRemoveUnitUseCase(e.catalog, resolver, svc, e.events, settings)
	e.move = NewMoveUnitUseCase(e.catalog, svc, e.events)
	e.moveBatch = NewMoveBatchUseCase(e.move)
	e.importer = NewImportStockUseCase(e.catalog, svc, e.events)
	e.resolve = NewResolveBarcodeUseCase(resolver)
	e.pool = NewPoolUseCase(e.catalog, pool, settings)
	e.listUnits = NewListUnitsUseCase(e.catalog, svc, presentation)
	return e
}

func (e *env) item(t *testing.T, name string) *catalog.Item {
	t.Helper()
	item, err := e.catalog.CreateItem(context.Background(), name, "", "")
	require.NoError(t, err)
	return item
}

func (e *env) location(t *testing.T, name string) *catalog.Location {
	t.Helper()
	loc, err := e.catalog.CreateLocation(context.Background(), name, "")
	require.NoError(t, err)
	return loc
}

func (e *env) addUnit(t *testing.T, scanned string, loc *catalog.Location) *AddUnitResponse {
	t.Helper()
	resp, err := e.add.Execute(context.Background(), AddUnitRequest{LocationBarcode: loc.Barcode, Scanned: scanned})
	require.NoError(t, err)
	return resp
}

func TestAddAndRemoveUnit(t *testing.T) {
	e := newEnv(t)
	item := e.item(t, "Frozen peas")
	loc := e.location(t, "Fridge 1")
	ctx := jwt.WithDevice(context.Background(), "scanner-01")

	first, err := e.add.Execute(ctx, AddUnitRequest{LocationBarcode: loc.Barcode, Scanned: " " + item.Barcode + "\n"})
	require.NoError(t, err)
	assert.Equal(t, item.Barcode+"-00001", first.UnitBarcode)
	assert.Equal(t, 1, first.SequenceNumber)
	assert.Equal(t, stock.AllocationMinted, first.Allocation)
	assert.False(t, first.IsLegacy)

	e.clock.Advance(24 * time.Hour)
	second, err := e.add.Execute(ctx, AddUnitRequest{LocationBarcode: loc.Barcode, Scanned: item.Barcode})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Quantity)
	assert.Equal(t, 2, second.Item.TotalQuantity)
	assert.True(t, second.AggregateAddedAt.Equal(first.AddedAt), "库存记录入库时间取最早单件")

	added := e.events.last()
	require.NotNil(t, added)
	assert.Equal(t, messaging.EventUnitAdded, added.Type)
	assert.Equal(t, "scanner-01", added.Actor)
	assert.Equal(t, second.UnitBarcode, added.UnitBarcode)

	e.clock.Advance(12 * time.Hour)

	t.Run("默认策略fifo移除最早一件", func(t *testing.T) {
		resp, err := e.remove.Execute(ctx, RemoveUnitRequest{LocationBarcode: loc.Barcode, Scanned: item.Barcode})
		require.NoError(t, err)
		assert.Equal(t, first.UnitBarcode, resp.UnitBarcode)
		assert.Equal(t, "fifo", resp.Policy)
		assert.InDelta(t, 1.5, resp.StorageDays, 1e-9)
		assert.False(t, resp.CompletelyRemoved)
		assert.Equal(t, 1, resp.RemainingQuantity)
		assert.Equal(t, 1, resp.Item.TotalQuantity)

		removed := e.events.last()
		assert.Equal(t, messaging.EventUnitRemoved, removed.Type)
		assert.InDelta(t, 1.5, removed.StorageDays, 1e-9)
	})

	t.Run("最后一件出库后库存记录删除", func(t *testing.T) {
		resp, err := e.remove.Execute(ctx, RemoveUnitRequest{LocationBarcode: loc.Barcode, Scanned: item.Barcode, Policy: "lifo"})
		require.NoError(t, err)
		assert.Equal(t, second.UnitBarcode, resp.UnitBarcode)
		assert.True(t, resp.CompletelyRemoved)
		assert.Equal(t, 0, resp.Item.TotalQuantity)

		_, err = e.remove.Execute(ctx, RemoveUnitRequest{LocationBarcode: loc.Barcode, Scanned: item.Barcode})
		assert.ErrorIs(t, err, stock.ErrAggregateNotFound)
	})

	t.Run("复用先于新铸", func(t *testing.T) {
		again := e.addUnit(t, item.Barcode, loc)
		assert.Equal(t, first.UnitBarcode, again.UnitBarcode)
		assert.Equal(t, stock.AllocationReused, again.Allocation)
	})
}

func TestAddUnit_Errors(t *testing.T) {
	e := newEnv(t)
	item := e.item(t, "Ice cream")
	loc := e.location(t, "Fridge 2")
	ctx := context.Background()

	_, err := e.add.Execute(ctx, AddUnitRequest{LocationBarcode: "LOCNOPE0000", Scanned: item.Barcode})
	assert.ErrorIs(t, err, catalog.ErrLocationNotFound)

	_, err = e.add.Execute(ctx, AddUnitRequest{LocationBarcode: loc.Barcode, Scanned: "NOT-A-BARCODE"})
	assert.ErrorIs(t, err, stock.ErrUnresolved)

	_, err = e.add.Execute(ctx, AddUnitRequest{LocationBarcode: loc.Barcode, Scanned: "   "})
	assert.ErrorIs(t, err, stock.ErrEmptyBarcode)

	assert.Empty(t, e.events.types(), "失败的入库不发布事件")
}

func TestAddUnit_ScannedLabel(t *testing.T) {
	e := newEnv(t)
	item := e.item(t, "Salmon")
	loc := e.location(t, "Fridge 3")

	// 旧标签第一次被扫到:登记进条码池并直接占用
	resp := e.addUnit(t, item.Barcode+"-00007", loc)
	assert.Equal(t, item.Barcode+"-00007", resp.UnitBarcode)
	assert.Equal(t, 7, resp.SequenceNumber)

	next := e.addUnit(t, item.Barcode, loc)
	assert.Equal(t, item.Barcode+"-00008", next.UnitBarcode)
}

func TestAddUnit_ExplicitAddedAt(t *testing.T) {
	e := newEnv(t)
	item := e.item(t, "Butter")
	loc := e.location(t, "Fridge 4")

	addedAt := e.clock.Now().Add(-72 * time.Hour)
	resp, err := e.add.Execute(context.Background(), AddUnitRequest{
		LocationBarcode: loc.Barcode,
		Scanned:         item.Barcode,
		AddedAt:         &addedAt,
	})
	require.NoError(t, err)
	assert.True(t, resp.AddedAt.Equal(addedAt))
}

func TestRemoveUnit_TargetAndScanned(t *testing.T) {
	e := newEnv(t)
	item := e.item(t, "Chicken")
	loc := e.location(t, "Fridge 5")
	for i := 0; i < 3; i++ {
		e.addUnit(t, item.Barcode, loc)
		e.clock.Advance(time.Hour)
	}
	ctx := context.Background()

	t.Run("扫到单件标签即移除该件", func(t *testing.T) {
		resp, err := e.remove.Execute(ctx, RemoveUnitRequest{LocationBarcode: loc.Barcode, Scanned: item.Barcode + "-00002"})
		require.NoError(t, err)
		assert.Equal(t, item.Barcode+"-00002", resp.UnitBarcode)
		assert.Equal(t, 2, resp.RemainingQuantity)
	})

	t.Run("指定单件", func(t *testing.T) {
		resp, err := e.remove.Execute(ctx, RemoveUnitRequest{
			LocationBarcode: loc.Barcode,
			Scanned:         item.Barcode,
			TargetBarcode:   item.Barcode + "-00003",
		})
		require.NoError(t, err)
		assert.Equal(t, item.Barcode+"-00003", resp.UnitBarcode)
		assert.Equal(t, "target", resp.Policy)
	})

	t.Run("未知策略", func(t *testing.T) {
		_, err := e.remove.Execute(ctx, RemoveUnitRequest{LocationBarcode: loc.Barcode, Scanned: item.Barcode, Policy: "random"})
		assert.ErrorIs(t, err, stock.ErrInvalidPolicy)
	})
}

func TestMoveUnit(t *testing.T) {
	e := newEnv(t)
	item := e.item(t, "Lamb")
	from := e.location(t, "Fridge A")
	to := e.location(t, "Fridge B")

	added := e.addUnit(t, item.Barcode, from)
	e.clock.Advance(10 * 24 * time.Hour)

	ctx := jwt.WithDevice(context.Background(), "scanner-07")
	resp, err := e.move.Execute(ctx, MoveUnitRequest{UnitBarcode: added.UnitBarcode, ToLocationBarcode: to.Barcode})
	require.NoError(t, err)

	assert.Equal(t, added.UnitBarcode, resp.UnitBarcode, "移库沿用原标签")
	assert.Equal(t, added.UnitBarcode, resp.PreviousBarcode)
	assert.InDelta(t, 10.0, resp.StorageDays, 1e-9, "移库不重置在库天数")
	assert.Equal(t, from.Barcode, resp.From.Barcode)
	assert.Equal(t, to.Barcode, resp.To.Barcode)
	assert.True(t, resp.SourceCleared)
	assert.Equal(t, 1, resp.DestinationQuantity)
	assert.Equal(t, 1, resp.Item.TotalQuantity)

	event := e.events.last()
	assert.Equal(t, messaging.EventUnitMoved, event.Type)
	assert.Equal(t, from.Barcode, event.FromLocationBarcode)
	assert.Equal(t, to.Barcode, event.LocationBarcode)
	assert.Equal(t, "scanner-07", event.Actor)

	_, err = e.move.Execute(ctx, MoveUnitRequest{UnitBarcode: added.UnitBarcode, ToLocationBarcode: to.Barcode})
	assert.ErrorIs(t, err, stock.ErrSameLocation)
}

func TestMoveBatch(t *testing.T) {
	e := newEnv(t)
	item := e.item(t, "Prawns")
	from := e.location(t, "Freezer 1")
	to := e.location(t, "Freezer 2")
	ctx := context.Background()

	var barcodes []string
	for i := 0; i < 3; i++ {
		barcodes = append(barcodes, e.addUnit(t, item.Barcode, from).UnitBarcode)
		e.clock.Advance(time.Minute)
	}

	resp, err := e.moveBatch.Execute(ctx, MoveBatchRequest{UnitBarcodes: barcodes, ToLocationBarcode: to.Barcode})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, 3, resp.Moved[2].DestinationQuantity)
	assert.True(t, resp.Moved[2].SourceCleared)

	types := e.events.types()
	assert.Equal(t, []string{messaging.EventUnitMoved, messaging.EventUnitMoved, messaging.EventUnitMoved}, types[3:])

	listed, err := e.listUnits.Execute(ctx, ListUnitsRequest{LocationBarcode: to.Barcode, ItemBarcode: item.Barcode})
	require.NoError(t, err)
	assert.Len(t, listed.Units, 3)
}

func TestMoveBatch_Compensation(t *testing.T) {
	e := newEnv(t)
	item := e.item(t, "Scallops")
	from := e.location(t, "Freezer 3")
	to := e.location(t, "Freezer 4")
	ctx := context.Background()

	first := e.addUnit(t, item.Barcode, from)
	e.clock.Advance(48 * time.Hour)
	second := e.addUnit(t, item.Barcode, from)
	e.clock.Advance(48 * time.Hour)
	before := len(e.events.types())

	_, err := e.moveBatch.Execute(ctx, MoveBatchRequest{
		UnitBarcodes:      []string{first.UnitBarcode, second.UnitBarcode, "NOPE-00001"},
		ToLocationBarcode: to.Barcode,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, stock.ErrUnitNotFound)

	// 已移动的两件回到原库位,入库时间不变
	listed, err := e.listUnits.Execute(ctx, ListUnitsRequest{LocationBarcode: from.Barcode, ItemBarcode: item.Barcode})
	require.NoError(t, err)
	require.Len(t, listed.Units, 2)
	assert.True(t, listed.Units[0].AddedAt.Equal(first.AddedAt))
	assert.True(t, listed.Units[1].AddedAt.Equal(second.AddedAt))

	_, err = e.listUnits.Execute(ctx, ListUnitsRequest{LocationBarcode: to.Barcode, ItemBarcode: item.Barcode})
	assert.ErrorIs(t, err, stock.ErrAggregateNotFound)

	assert.Len(t, e.events.types(), before, "回滚的批量移库不发布事件")
}

func TestMoveBatch_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.moveBatch.Execute(ctx, MoveBatchRequest{ToLocationBarcode: "LOC1"})
	assert.ErrorIs(t, err, ErrEmptyBatch)

	_, err = e.moveBatch.Execute(ctx, MoveBatchRequest{UnitBarcodes: []string{"A-00001", " A-00001"}, ToLocationBarcode: "LOC1"})
	assert.ErrorIs(t, err, ErrDuplicateInBatch)

	_, err = e.moveBatch.Execute(ctx, MoveBatchRequest{UnitBarcodes: []string{"A-00001", ""}, ToLocationBarcode: "LOC1"})
	assert.ErrorIs(t, err, stock.ErrEmptyBarcode)

	tooMany := make([]string, maxBatchSize+1)
	_, err = e.moveBatch.Execute(ctx, MoveBatchRequest{UnitBarcodes: tooMany, ToLocationBarcode: "LOC1"})
	assert.ErrorIs(t, err, ErrBatchTooLarge)
}

func TestImportStock(t *testing.T) {
	e := newEnv(t)
	item := e.item(t, "Beef")
	locA := e.location(t, "Freezer 5")
	locB := e.location(t, "Freezer 6")
	ctx := context.Background()

	single, err := e.importer.Execute(ctx, ImportStockRequest{ItemBarcode: item.Barcode, LocationBarcode: locA.Barcode, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{item.Barcode}, single.UnitBarcodes, "单件导入沿用物品原条码")

	addedAt := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	batch, err := e.importer.Execute(ctx, ImportStockRequest{
		ItemBarcode:     item.Barcode,
		LocationBarcode: locB.Barcode,
		Quantity:        2,
		AddedAt:         &addedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, batch.Imported)
	assert.Equal(t, []string{item.Barcode + "-00002", item.Barcode + "-00003"}, batch.UnitBarcodes)
	assert.Equal(t, 3, batch.Item.TotalQuantity)

	event := e.events.last()
	assert.Equal(t, messaging.EventStockImported, event.Type)
	assert.Equal(t, 2, event.Quantity)

	_, err = e.importer.Execute(ctx, ImportStockRequest{ItemBarcode: item.Barcode, LocationBarcode: locB.Barcode, Quantity: 0})
	assert.ErrorIs(t, err, stock.ErrInvalidQuantity)
}

func TestResolveBarcode(t *testing.T) {
	e := newEnv(t)
	item := e.item(t, "Cod")
	ctx := context.Background()

	resp, err := e.resolve.Execute(ctx, item.Barcode)
	require.NoError(t, err)
	assert.Equal(t, stock.StepItem, resp.Step)
	assert.Nil(t, resp.PoolBarcode)

	resp, err = e.resolve.Execute(ctx, item.Barcode+"-00003")
	require.NoError(t, err)
	assert.Equal(t, stock.StepPattern, resp.Step)
	assert.True(t, resp.Materialized)
	require.NotNil(t, resp.PoolBarcode)
	assert.False(t, resp.PoolBarcode.InUse)
	assert.False(t, resp.PoolBarcode.Legacy)

	resp, err = e.resolve.Execute(ctx, item.Barcode+"-00003")
	require.NoError(t, err)
	assert.Equal(t, stock.StepPool, resp.Step)

	_, err = e.resolve.Execute(ctx, "UNKNOWN")
	assert.ErrorIs(t, err, stock.ErrUnresolved)
}

func TestPoolUseCase(t *testing.T) {
	e := newEnv(t)
	item := e.item(t, "Tuna")
	loc := e.location(t, "Freezer 7")
	ctx := context.Background()

	resp, err := e.pool.Ensure(ctx, EnsurePoolRequest{ItemBarcode: item.Barcode})
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Target, "未指定时使用默认大小")
	assert.Equal(t, 5, resp.Created)
	assert.Equal(t, int64(5), resp.Stats.Available)

	e.addUnit(t, item.Barcode, loc)
	stats, err := e.pool.Stats(ctx, item.Barcode)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.Total, "预热的条码被复用,不新铸")
	assert.Equal(t, int64(1), stats.InUse)
	assert.InDelta(t, 20.0, stats.UtilizationPercent, 1e-9)

	zero := 0
	_, err = e.pool.Ensure(ctx, EnsurePoolRequest{ItemBarcode: item.Barcode, Target: &zero})
	assert.ErrorIs(t, err, stock.ErrInvalidTarget)

	_, err = e.pool.Stats(ctx, "ITMNOPE0000")
	assert.ErrorIs(t, err, catalog.ErrItemNotFound)
}

func TestListUnits_Aging(t *testing.T) {
	e := newEnv(t)
	item := e.item(t, "Venison")
	loc := e.location(t, "Freezer 8")

	e.addUnit(t, item.Barcode, loc)
	e.clock.Advance(130 * 24 * time.Hour)
	e.addUnit(t, item.Barcode, loc)

	resp, err := e.listUnits.Execute(context.Background(), ListUnitsRequest{LocationBarcode: loc.Barcode, ItemBarcode: item.Barcode})
	require.NoError(t, err)
	require.Len(t, resp.Units, 2)
	assert.Equal(t, 2, resp.Quantity)

	assert.InDelta(t, 130.0, resp.Units[0].StorageDays, 1e-9)
	assert.Equal(t, config.AgingWarning, resp.Units[0].AgingLevel)
	assert.Equal(t, "getting old", resp.Units[0].AgingLabel)
	assert.Equal(t, config.AgingFresh, resp.Units[1].AgingLevel)
}

func TestNewSettings(t *testing.T) {
	cfg := &config.Config{}
	s := NewSettings(cfg)
	assert.Equal(t, stock.PolicyFIFO, s.DefaultPolicy)
	assert.Equal(t, stock.DefaultPoolTarget, s.DefaultPoolSize)

	cfg.Inventory = config.InventoryConfig{DefaultRemovalPolicy: "lifo", DefaultPoolSize: 10}
	s = NewSettings(cfg)
	assert.Equal(t, stock.PolicyLIFO, s.DefaultPolicy)
	assert.Equal(t, 10, s.DefaultPoolSize)
}
