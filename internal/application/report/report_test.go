package report

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/xiebiao/stocktrack/internal/domain/catalog"
	"github.com/xiebiao/stocktrack/internal/domain/stock"
	"github.com/xiebiao/stocktrack/internal/infrastructure/config"
	"github.com/xiebiao/stocktrack/internal/infrastructure/persistence/memory"
)

type env struct {
	now     time.Time
	store   *memory.Store
	catalog catalog.Service
	svc     *stock.Service
	aging   *AgingReportUseCase
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	items := memory.NewItemRepository(store)
	aggregates := memory.NewAggregateRepository(store)

	e := &env{store: store, now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return e.now }
	opts := stock.Options{Now: clock}
	pool := stock.NewPool(memory.NewPoolRepository(store), memory.NewCounterRepository(store), items, store, opts)
	e.svc = stock.NewService(store, items, aggregates, memory.NewUnitRepository(store), pool, opts)
	e.catalog = catalog.NewService(items, memory.NewLocationRepository(store), memory.NewCategoryRepository(store))

	presentation, err := config.PresentationConfig{Preset: config.PresetFrozenFood}.Resolve()
	require.NoError(t, err)
	e.aging = NewAgingReportUseCase(aggregates, presentation)
	e.aging.now = clock
	return e
}

// stockAt 在指定时间入库n件
func (e *env) stockAt(t *testing.T, itemName, locationName string, at time.Time, n int) {
	t.Helper()
	ctx := context.Background()
	item, err := e.catalog.CreateItem(ctx, itemName, "", "")
	require.NoError(t, err)
	loc, err := e.catalog.CreateLocation(ctx, locationName, "")
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		_, err := e.svc.AddUnit(ctx, stock.AddUnitParams{Item: item, Location: loc, AddedAt: &at})
		require.NoError(t, err)
	}
}

func TestAgingReport(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	day := 24 * time.Hour

	e.stockAt(t, "Peas", "Chest freezer", e.now.Add(-200*day), 2)
	e.stockAt(t, "Corn", "Kitchen fridge", e.now.Add(-130*day), 1)
	e.stockAt(t, "Soup", "Garage fridge", e.now.Add(-3*day), 4)

	resp, err := e.aging.Execute(ctx, 1, 2)
	require.NoError(t, err)

	assert.Equal(t, int64(3), resp.Total)
	assert.Equal(t, 120, resp.WarningDays)
	assert.Equal(t, 180, resp.DangerDays)
	assert.Equal(t, int64(2), resp.WarningCount)
	assert.Equal(t, int64(1), resp.DangerCount)

	require.Len(t, resp.Rows, 2)
	assert.Equal(t, "Peas", resp.Rows[0].ItemName)
	assert.Equal(t, 2, resp.Rows[0].Quantity)
	assert.InDelta(t, 200.0, resp.Rows[0].StorageDays, 1e-9)
	assert.Equal(t, config.AgingDanger, resp.Rows[0].AgingLevel)
	assert.Equal(t, "very old", resp.Rows[0].AgingLabel)
	assert.Equal(t, config.AgingWarning, resp.Rows[1].AgingLevel)

	require.NotNil(t, resp.Oldest)
	assert.Equal(t, "Peas", resp.Oldest.ItemName)

	// 第二页只有最新的一条,最老的仍然给出
	resp, err = e.aging.Execute(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "Soup", resp.Rows[0].ItemName)
	assert.Equal(t, config.AgingFresh, resp.Rows[0].AgingLevel)
	require.NotNil(t, resp.Oldest)
	assert.Equal(t, "Peas", resp.Oldest.ItemName)
}

func TestAgingReportEmpty(t *testing.T) {
	e := newEnv(t)

	resp, err := e.aging.Execute(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, resp.Rows)
	assert.Nil(t, resp.Oldest)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.PageSize)
	assert.Zero(t, resp.WarningCount)
}

func TestAgingReportExportXLSX(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.stockAt(t, "Peas", "Chest freezer", e.now.Add(-150*24*time.Hour), 3)
	e.stockAt(t, "Corn", "Kitchen fridge", e.now.Add(-36*time.Hour), 1)

	data, err := e.aging.ExportXLSX(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{agingSheet}, f.GetSheetList())
	rows, err := f.GetRows(agingSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, agingHeader, rows[0])
	assert.Equal(t, "Peas", rows[1][1])
	assert.Equal(t, "3", rows[1][4])
	assert.Equal(t, "getting old", rows[1][7])
	assert.Equal(t, "Corn", rows[2][1])
	assert.Equal(t, "1.5", rows[2][6])
}

type fakeChecker struct {
	pingErr  error
	countErr error
}

func (f fakeChecker) Ping(context.Context) error { return f.pingErr }

func (f fakeChecker) Counts(context.Context) (int64, int64, int64, int64, error) {
	if f.countErr != nil {
		return 0, 0, 0, 0, f.countErr
	}
	return 1, 2, 3, 4, nil
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	uc := NewStatusUseCase(fakeChecker{}, "1.2.0")
	uc.now = func() time.Time { return at }
	resp := uc.Execute(ctx)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.0", resp.Version)
	assert.Equal(t, at, resp.Timestamp)
	assert.Equal(t, DatabaseStatus{
		Connected:            true,
		LocationsCount:       1,
		ItemsCount:           2,
		StockAggregatesCount: 3,
		UnitsCount:           4,
	}, resp.Database)

	resp = NewStatusUseCase(fakeChecker{pingErr: errors.New("dial tcp: connection refused")}, "1.2.0").Execute(ctx)
	assert.Equal(t, "degraded", resp.Status)
	assert.False(t, resp.Database.Connected)
	assert.Equal(t, "dial tcp: connection refused", resp.Database.Error)

	resp = NewStatusUseCase(fakeChecker{countErr: errors.New("table missing")}, "1.2.0").Execute(ctx)
	assert.False(t, resp.Database.Connected)
	assert.Equal(t, "table missing", resp.Database.Error)
}

func TestStatusWithMemoryStore(t *testing.T) {
	e := newEnv(t)
	e.stockAt(t, "Peas", "Chest freezer", e.now, 2)

	resp := NewStatusUseCase(e.store, "dev").Execute(context.Background())
	require.True(t, resp.Database.Connected)
	assert.Equal(t, int64(1), resp.Database.ItemsCount)
	assert.Equal(t, int64(1), resp.Database.LocationsCount)
	assert.Equal(t, int64(1), resp.Database.StockAggregatesCount)
	assert.Equal(t, int64(2), resp.Database.UnitsCount)
}
