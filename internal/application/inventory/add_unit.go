package inventory

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/xiebiao/stocktrack/internal/domain/catalog"
	"github.com/xiebiao/stocktrack/internal/domain/stock"
	"github.com/xiebiao/stocktrack/internal/infrastructure/messaging"
	"github.com/xiebiao/stocktrack/pkg/metrics"
)

// AddUnitUseCase 扫码入库用例
// 设计说明:
// 1. 扫码串可以是物品条码,也可以是一张个体标签(池条码或旧标签)
// 2. 扫到的是一张可用的个体标签时优先占用它,实物上贴的标签保持有效
// 3. 事务提交后发布unit.added事件,发布失败不影响入库结果
type AddUnitUseCase struct {
	catalog   catalog.Service
	resolver  *stock.Resolver
	stock     *stock.Service
	publisher messaging.EventPublisher
}

// NewAddUnitUseCase 创建入库用例
func NewAddUnitUseCase(
	catalogService catalog.Service,
	resolver *stock.Resolver,
	stockService *stock.Service,
	publisher messaging.EventPublisher,
) *AddUnitUseCase {
	return &AddUnitUseCase{
		catalog:   catalogService,
		resolver:  resolver,
		stock:     stockService,
		publisher: publisher,
	}
}

// AddUnitRequest 入库请求DTO
type AddUnitRequest struct {
	LocationBarcode string
	Scanned         string     // 物品条码或个体标签
	AddedAt         *time.Time // 显式入库时间(补录),nil表示当前时间
}

// AddUnitResponse 入库响应DTO
type AddUnitResponse struct {
	UnitBarcode      string          `json:"unit_barcode"`
	SequenceNumber   int             `json:"sequence_number"`
	Allocation       string          `json:"allocation"`
	IsLegacy         bool            `json:"is_legacy"`
	AddedAt          time.Time       `json:"added_at"`
	Item             ItemSummary     `json:"item"`
	Location         LocationSummary `json:"location"`
	Quantity         int             `json:"quantity"`
	AggregateAddedAt time.Time       `json:"aggregate_added_at"`
}

// Execute 执行入库
func (uc *AddUnitUseCase) Execute(ctx context.Context, req AddUnitRequest) (resp *AddUnitResponse, err error) {
	ctx, done := observe(ctx, "add_unit",
		attribute.String("location_barcode", req.LocationBarcode),
		attribute.String("scanned", req.Scanned))
	defer func() { done(err) }()

	// 1. 先确认库位,库位不存在时不触发扫码登记
	location, err := uc.catalog.GetLocationByBarcode(ctx, req.LocationBarcode)
	if err != nil {
		return nil, err
	}

	// 2. 解析扫码串
	resolution, err := uc.resolver.ResolveAndRegister(ctx, req.Scanned)
	if err != nil {
		return nil, err
	}

	params := stock.AddUnitParams{
		Item:     resolution.Item,
		Location: location,
		AddedAt:  req.AddedAt,
	}
	if pb := resolution.PoolBarcode; pb != nil && !pb.InUse && pb.ItemID == resolution.Item.ID {
		params.PreferredBarcodeID = pb.ID
	}

	// 3. 入库
	result, err := uc.stock.AddUnit(ctx, params)
	if err != nil {
		return nil, err
	}
	metrics.IncCounterVec(metrics.UnitsAddedTotal, map[string]string{"source": "scan"})

	// 4. 发布事件
	event := newEvent(ctx, messaging.EventUnitAdded, result.Unit.CreatedAt)
	event.ItemBarcode = result.Item.Barcode
	event.LocationBarcode = location.Barcode
	event.UnitBarcode = result.Unit.Barcode
	event.Sequence = result.Unit.SequenceNumber
	uc.publisher.Publish(ctx, event)

	return &AddUnitResponse{
		UnitBarcode:      result.Unit.Barcode,
		SequenceNumber:   result.Unit.SequenceNumber,
		Allocation:       result.Allocation,
		IsLegacy:         result.IsLegacy(),
		AddedAt:          result.Unit.AddedAt,
		Item:             itemSummary(result.Item),
		Location:         locationSummary(location),
		Quantity:         result.Aggregate.Quantity,
		AggregateAddedAt: result.Aggregate.AddedAt,
	}, nil
}

// trimmed 去掉扫码枪带出的首尾空白
func trimmed(s string) string {
	return strings.TrimSpace(s)
}
