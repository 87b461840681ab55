package inventory

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/xiebiao/stocktrack/internal/domain/catalog"
	"github.com/xiebiao/stocktrack/internal/domain/stock"
)

// PoolUseCase 条码池管理用例(统计、预热)
type PoolUseCase struct {
	catalog  catalog.Service
	pool     *stock.Pool
	settings Settings
}

// NewPoolUseCase 创建条码池管理用例
func NewPoolUseCase(catalogService catalog.Service, pool *stock.Pool, settings Settings) *PoolUseCase {
	return &PoolUseCase{
		catalog:  catalogService,
		pool:     pool,
		settings: settings,
	}
}

// PoolStatsResponse 条码池统计DTO
type PoolStatsResponse struct {
	ItemBarcode        string  `json:"item_barcode"`
	Total              int64   `json:"total"`
	InUse              int64   `json:"in_use"`
	Available          int64   `json:"available"`
	UtilizationPercent float64 `json:"utilization_percent"`
}

// EnsurePoolRequest 预热请求DTO
type EnsurePoolRequest struct {
	ItemBarcode string
	Target      *int // nil使用inventory.default_pool_size
}

// EnsurePoolResponse 预热响应DTO
type EnsurePoolResponse struct {
	Target  int               `json:"target"`
	Created int               `json:"created"`
	Stats   PoolStatsResponse `json:"stats"`
}

// Stats 查询条码池统计
func (uc *PoolUseCase) Stats(ctx context.Context, itemBarcode string) (resp *PoolStatsResponse, err error) {
	ctx, done := observe(ctx, "pool_stats", attribute.String("item_barcode", itemBarcode))
	defer func() { done(err) }()

	item, err := uc.catalog.GetItemByBarcode(ctx, itemBarcode)
	if err != nil {
		return nil, err
	}
	return uc.stats(ctx, item)
}

// Ensure 预热条码池
func (uc *PoolUseCase) Ensure(ctx context.Context, req EnsurePoolRequest) (resp *EnsurePoolResponse, err error) {
	ctx, done := observe(ctx, "ensure_pool", attribute.String("item_barcode", req.ItemBarcode))
	defer func() { done(err) }()

	target := uc.settings.DefaultPoolSize
	if req.Target != nil {
		target = *req.Target
	}

	item, err := uc.catalog.GetItemByBarcode(ctx, req.ItemBarcode)
	if err != nil {
		return nil, err
	}
	created, err := uc.pool.EnsureMinimumSize(ctx, item, target)
	if err != nil {
		return nil, err
	}
	stats, err := uc.stats(ctx, item)
	if err != nil {
		return nil, err
	}
	return &EnsurePoolResponse{Target: target, Created: created, Stats: *stats}, nil
}

func (uc *PoolUseCase) stats(ctx context.Context, item *catalog.Item) (*PoolStatsResponse, error) {
	stats, err := uc.pool.Stats(ctx, item)
	if err != nil {
		return nil, err
	}
	return &PoolStatsResponse{
		ItemBarcode:        item.Barcode,
		Total:              stats.Total,
		InUse:              stats.InUse,
		Available:          stats.Available,
		UtilizationPercent: stats.UtilizationPercent,
	}, nil
}
