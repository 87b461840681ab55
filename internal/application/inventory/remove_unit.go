package inventory

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/xiebiao/stocktrack/internal/domain/catalog"
	"github.com/xiebiao/stocktrack/internal/domain/stock"
	"github.com/xiebiao/stocktrack/internal/infrastructure/messaging"
)

// RemoveUnitUseCase 扫码出库用例
type RemoveUnitUseCase struct {
	catalog   catalog.Service
	resolver  *stock.Resolver
	stock     *stock.Service
	publisher messaging.EventPublisher
	settings  Settings
}

// NewRemoveUnitUseCase 创建出库用例
func NewRemoveUnitUseCase(
	catalogService catalog.Service,
	resolver *stock.Resolver,
	stockService *stock.Service,
	publisher messaging.EventPublisher,
	settings Settings,
) *RemoveUnitUseCase {
	return &RemoveUnitUseCase{
		catalog:   catalogService,
		resolver:  resolver,
		stock:     stockService,
		publisher: publisher,
		settings:  settings,
	}
}

// RemoveUnitRequest 出库请求DTO
type RemoveUnitRequest struct {
	LocationBarcode string
	Scanned         string // 物品条码或个体标签
	Policy          string // fifo | lifo,为空使用配置的默认策略
	TargetBarcode   string // 指定移除的单件条码
}

// RemoveUnitResponse 出库响应DTO
// StorageDays保留小数,展示层自行取舍
type RemoveUnitResponse struct {
	UnitBarcode       string          `json:"unit_barcode"`
	SequenceNumber    int             `json:"sequence_number"`
	WasLegacy         bool            `json:"was_legacy"`
	AddedAt           time.Time       `json:"added_at"`
	StorageDays       float64         `json:"storage_days"`
	Policy            string          `json:"policy"`
	CompletelyRemoved bool            `json:"completely_removed"`
	RemainingQuantity int             `json:"remaining_quantity"`
	Item              ItemSummary     `json:"item"`
	Location          LocationSummary `json:"location"`
}

// Execute 执行出库
// 选择顺序:TargetBarcode > 扫到的是该库位某单件的标签 > 按策略
func (uc *RemoveUnitUseCase) Execute(ctx context.Context, req RemoveUnitRequest) (resp *RemoveUnitResponse, err error) {
	ctx, done := observe(ctx, "remove_unit",
		attribute.String("location_barcode", req.LocationBarcode),
		attribute.String("scanned", req.Scanned))
	defer func() { done(err) }()

	// 1. 参数
	policy, err := stock.ParseRemovalPolicy(req.Policy, uc.settings.DefaultPolicy)
	if err != nil {
		return nil, err
	}
	location, err := uc.catalog.GetLocationByBarcode(ctx, req.LocationBarcode)
	if err != nil {
		return nil, err
	}
	resolution, err := uc.resolver.ResolveAndRegister(ctx, req.Scanned)
	if err != nil {
		return nil, err
	}

	// 2. 出库
	target := trimmed(req.TargetBarcode)
	result, err := uc.stock.RemoveUnit(ctx, stock.RemoveUnitParams{
		Item:          resolution.Item,
		Location:      location,
		Policy:        policy,
		TargetBarcode: target,
		Scanned:       trimmed(req.Scanned),
	})
	if err != nil {
		return nil, err
	}

	// 3. 发布事件
	event := newEvent(ctx, messaging.EventUnitRemoved, uc.stock.Now())
	event.ItemBarcode = resolution.Item.Barcode
	event.LocationBarcode = location.Barcode
	event.UnitBarcode = result.Barcode
	event.Sequence = result.SequenceNumber
	event.StorageDays = result.StorageDays
	uc.publisher.Publish(ctx, event)

	item := *resolution.Item
	item.TotalQuantity = result.ItemTotalQuantity
	resp = &RemoveUnitResponse{
		UnitBarcode:       result.Barcode,
		SequenceNumber:    result.SequenceNumber,
		WasLegacy:         result.WasLegacy,
		AddedAt:           result.AddedAt,
		StorageDays:       result.StorageDays,
		Policy:            string(policy),
		CompletelyRemoved: result.CompletelyRemoved,
		Item:              itemSummary(&item),
		Location:          locationSummary(location),
	}
	if target != "" {
		resp.Policy = "target"
	}
	if result.Remaining != nil {
		resp.RemainingQuantity = result.Remaining.Quantity
	}
	return resp, nil
}
