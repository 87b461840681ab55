package stock_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/stocktrack/internal/domain/stock"
)

type mapCache struct {
	mu      sync.Mutex
	entries map[string]uint
	failGet bool
	sets    int
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]uint{}}
}

func (c *mapCache) Get(_ context.Context, scanned string) (uint, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return 0, false, errors.New("connection refused")
	}
	id, ok := c.entries[scanned]
	return id, ok, nil
}

func (c *mapCache) Set(_ context.Context, scanned string, itemID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[scanned] = itemID
	return nil
}

func TestResolveAndRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("物品条码", func(t *testing.T) {
		f := newFixture(t)
		item := f.item(t, "ITMRES01")

		res, err := f.resolver.ResolveAndRegister(ctx, "  ITMRES01 ")
		require.NoError(t, err)
		assert.Equal(t, item.ID, res.Item.ID)
		assert.Equal(t, stock.StepItem, res.Step)
		assert.Nil(t, res.PoolBarcode)
	})

	t.Run("池中已有条码", func(t *testing.T) {
		f := newFixture(t)
		item := f.item(t, "ITMRES02")
		loc := f.location(t, "LOCRES02")
		added := f.add(t, item, loc, nil)

		res, err := f.resolver.ResolveAndRegister(ctx, added.Unit.Barcode)
		require.NoError(t, err)
		assert.Equal(t, item.ID, res.Item.ID)
		assert.Equal(t, stock.StepPool, res.Step)
		require.NotNil(t, res.PoolBarcode)
		assert.True(t, res.PoolBarcode.InUse)
		assert.False(t, res.Materialized)
	})

	t.Run("生成形状的条码登记为可用并抬高计数器", func(t *testing.T) {
		f := newFixture(t)
		item := f.item(t, "ITMRES03")
		loc := f.location(t, "LOCRES03")

		res, err := f.resolver.ResolveAndRegister(ctx, "ITMRES03-00007")
		require.NoError(t, err)
		assert.Equal(t, item.ID, res.Item.ID)
		assert.Equal(t, stock.StepPattern, res.Step)
		assert.True(t, res.Materialized)
		require.NotNil(t, res.PoolBarcode)
		assert.False(t, res.PoolBarcode.InUse)

		current, err := f.counters.Current(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(7), current)

		// 扫到的标签贴到实物上入库
		added, err := f.svc.AddUnit(ctx, stock.AddUnitParams{Item: item, Location: loc, PreferredBarcodeID: res.PoolBarcode.ID})
		require.NoError(t, err)
		assert.Equal(t, "ITMRES03-00007", added.Unit.Barcode)
		assert.Equal(t, 7, added.Unit.SequenceNumber)

		next := f.add(t, item, loc, nil)
		assert.Equal(t, "ITMRES03-00008", next.Unit.Barcode)

		// 再扫一次走条码池
		again, err := f.resolver.ResolveAndRegister(ctx, "ITMRES03-00007")
		require.NoError(t, err)
		assert.Equal(t, stock.StepPool, again.Step)
	})

	t.Run("乱序扫描的较小序号同样登记", func(t *testing.T) {
		f := newFixture(t)
		item := f.item(t, "ITMRES07")
		loc := f.location(t, "LOCRES07")

		first, err := f.resolver.ResolveAndRegister(ctx, "ITMRES07-00007")
		require.NoError(t, err)
		assert.True(t, first.Materialized)

		second, err := f.resolver.ResolveAndRegister(ctx, "ITMRES07-00003")
		require.NoError(t, err)
		assert.Equal(t, item.ID, second.Item.ID)
		assert.Equal(t, stock.StepPattern, second.Step)
		assert.True(t, second.Materialized)
		require.NotNil(t, second.PoolBarcode)
		assert.False(t, second.PoolBarcode.InUse)

		registered, err := f.barcodes.FindByBarcode(ctx, "ITMRES07-00003")
		require.NoError(t, err)
		assert.Equal(t, item.ID, registered.ItemID)

		// 计数器不回退
		current, err := f.counters.Current(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(7), current)

		added, err := f.svc.AddUnit(ctx, stock.AddUnitParams{Item: item, Location: loc, PreferredBarcodeID: second.PoolBarcode.ID})
		require.NoError(t, err)
		assert.Equal(t, "ITMRES07-00003", added.Unit.Barcode)
		assert.Equal(t, 3, added.Unit.SequenceNumber)
	})

	t.Run("原条码占着序号1时只解析不登记", func(t *testing.T) {
		f := newFixture(t)
		loc := f.location(t, "LOCRES04")

		// 原条码占了序号1,池中没有-00001
		legacyItem := f.item(t, "ITMRES05")
		_, err := f.svc.ImportStock(ctx, stock.ImportParams{Item: legacyItem, Location: loc, Quantity: 1})
		require.NoError(t, err)

		res, err := f.resolver.ResolveAndRegister(ctx, "ITMRES05-00001")
		require.NoError(t, err)
		assert.Equal(t, legacyItem.ID, res.Item.ID)
		assert.Equal(t, stock.StepPattern, res.Step)
		assert.False(t, res.Materialized)
		assert.Nil(t, res.PoolBarcode)

		_, err = f.barcodes.FindByBarcode(ctx, "ITMRES05-00001")
		assert.ErrorIs(t, err, stock.ErrBarcodeNotFound)
	})

	t.Run("无法解析", func(t *testing.T) {
		f := newFixture(t)
		f.item(t, "ITMRES06")

		for _, scanned := range []string{"UNKNOWN", "NOITEM-00001", "ITMRES06-1", "ITMRES06-000001"} {
			_, err := f.resolver.ResolveAndRegister(ctx, scanned)
			assert.ErrorIs(t, err, stock.ErrUnresolved, scanned)
		}
	})

	t.Run("空串", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.resolver.ResolveAndRegister(ctx, "   ")
		assert.ErrorIs(t, err, stock.ErrEmptyBarcode)
	})
}

func TestResolveAndRegister_Cache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cache := newMapCache()
	resolver := stock.NewResolver(f.items, f.barcodes, f.pool, cache, f.store, stock.Options{Now: f.clock.Now})

	item := f.item(t, "ITMCACHE")
	loc := f.location(t, "LOCCACHE")
	added := f.add(t, item, loc, nil)

	first, err := resolver.ResolveAndRegister(ctx, added.Unit.Barcode)
	require.NoError(t, err)
	assert.Equal(t, stock.StepPool, first.Step)
	assert.Equal(t, 1, cache.sets)

	second, err := resolver.ResolveAndRegister(ctx, added.Unit.Barcode)
	require.NoError(t, err)
	assert.Equal(t, stock.StepCache, second.Step)
	assert.Equal(t, item.ID, second.Item.ID)
	require.NotNil(t, second.PoolBarcode)
	assert.Equal(t, added.PoolBarcode.ID, second.PoolBarcode.ID)

	// 缓存故障时降级为直接查库
	cache.failGet = true
	third, err := resolver.ResolveAndRegister(ctx, item.Barcode)
	require.NoError(t, err)
	assert.Equal(t, stock.StepItem, third.Step)
}
