package inventory

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/xiebiao/stocktrack/internal/domain/catalog"
	"github.com/xiebiao/stocktrack/internal/domain/stock"
	"github.com/xiebiao/stocktrack/internal/infrastructure/messaging"
	"github.com/xiebiao/stocktrack/pkg/metrics"
)

// ImportStockUseCase 历史库存导入用例
// 把启用单件追踪之前按数量记录的库存转换为单件,整批在一个事务内完成
type ImportStockUseCase struct {
	catalog   catalog.Service
	stock     *stock.Service
	publisher messaging.EventPublisher
}

// NewImportStockUseCase 创建导入用例
func NewImportStockUseCase(catalogService catalog.Service, stockService *stock.Service, publisher messaging.EventPublisher) *ImportStockUseCase {
	return &ImportStockUseCase{
		catalog:   catalogService,
		stock:     stockService,
		publisher: publisher,
	}
}

// ImportStockRequest 导入请求DTO
type ImportStockRequest struct {
	ItemBarcode     string
	LocationBarcode string
	Quantity        int
	AddedAt         *time.Time // 原始入库时间,nil表示当前时间
}

// ImportStockResponse 导入响应DTO
type ImportStockResponse struct {
	Imported     int             `json:"imported"`
	UnitBarcodes []string        `json:"unit_barcodes"`
	Quantity     int             `json:"quantity"`
	Item         ItemSummary     `json:"item"`
	Location     LocationSummary `json:"location"`
}

// Execute 执行导入
func (uc *ImportStockUseCase) Execute(ctx context.Context, req ImportStockRequest) (resp *ImportStockResponse, err error) {
	ctx, done := observe(ctx, "import_stock",
		attribute.String("item_barcode", req.ItemBarcode),
		attribute.Int("quantity", req.Quantity))
	defer func() { done(err) }()

	if req.Quantity <= 0 {
		return nil, stock.ErrInvalidQuantity
	}
	item, err := uc.catalog.GetItemByBarcode(ctx, req.ItemBarcode)
	if err != nil {
		return nil, err
	}
	location, err := uc.catalog.GetLocationByBarcode(ctx, req.LocationBarcode)
	if err != nil {
		return nil, err
	}

	params := stock.ImportParams{Item: item, Location: location, Quantity: req.Quantity}
	if req.AddedAt != nil {
		params.AddedAt = *req.AddedAt
	}
	result, err := uc.stock.ImportStock(ctx, params)
	if err != nil {
		return nil, err
	}
	metrics.AddCounterVec(metrics.UnitsAddedTotal, map[string]string{"source": "import"}, float64(len(result.Units)))

	barcodes := make([]string, len(result.Units))
	for i, u := range result.Units {
		barcodes[i] = u.Barcode
	}

	event := newEvent(ctx, messaging.EventStockImported, uc.stock.Now())
	event.ItemBarcode = item.Barcode
	event.LocationBarcode = location.Barcode
	event.Quantity = len(result.Units)
	uc.publisher.Publish(ctx, event)

	return &ImportStockResponse{
		Imported:     len(result.Units),
		UnitBarcodes: barcodes,
		Quantity:     result.Aggregate.Quantity,
		Item:         itemSummary(result.Item),
		Location:     locationSummary(location),
	}, nil
}
