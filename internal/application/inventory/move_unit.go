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

// MoveUnitUseCase 移库用例
// 来源出库与目标入库在同一事务内完成,入库时间沿用原单件
type MoveUnitUseCase struct {
	catalog   catalog.Service
	stock     *stock.Service
	publisher messaging.EventPublisher
}

// NewMoveUnitUseCase 创建移库用例
func NewMoveUnitUseCase(catalogService catalog.Service, stockService *stock.Service, publisher messaging.EventPublisher) *MoveUnitUseCase {
	return &MoveUnitUseCase{
		catalog:   catalogService,
		stock:     stockService,
		publisher: publisher,
	}
}

// MoveUnitRequest 移库请求DTO
type MoveUnitRequest struct {
	UnitBarcode       string
	ToLocationBarcode string
}

// MoveUnitResponse 移库响应DTO
type MoveUnitResponse struct {
	UnitBarcode         string          `json:"unit_barcode"`
	PreviousBarcode     string          `json:"previous_barcode"`
	SequenceNumber      int             `json:"sequence_number"`
	AddedAt             time.Time       `json:"added_at"`
	StorageDays         float64         `json:"storage_days"`
	Item                ItemSummary     `json:"item"`
	From                LocationSummary `json:"from"`
	To                  LocationSummary `json:"to"`
	SourceRemaining     int             `json:"source_remaining"`
	SourceCleared       bool            `json:"source_cleared"`
	DestinationQuantity int             `json:"destination_quantity"`
}

// Execute 执行移库
func (uc *MoveUnitUseCase) Execute(ctx context.Context, req MoveUnitRequest) (resp *MoveUnitResponse, err error) {
	ctx, done := observe(ctx, "move_unit",
		attribute.String("unit_barcode", req.UnitBarcode),
		attribute.String("to_location_barcode", req.ToLocationBarcode))
	defer func() { done(err) }()

	resp, err = uc.move(ctx, trimmed(req.UnitBarcode), req.ToLocationBarcode, true)
	return resp, err
}

// move 移库并组装响应
// publish为false时不发布事件(批量移库成功后统一发布)
func (uc *MoveUnitUseCase) move(ctx context.Context, unitBarcode, toLocationBarcode string, publish bool) (*MoveUnitResponse, error) {
	to, err := uc.catalog.GetLocationByBarcode(ctx, toLocationBarcode)
	if err != nil {
		return nil, err
	}

	result, err := uc.stock.Move(ctx, unitBarcode, to)
	if err != nil {
		return nil, err
	}
	metrics.IncCounterVec(metrics.UnitsAddedTotal, map[string]string{"source": "move"})

	from, err := uc.catalog.GetLocationByID(ctx, result.FromLocationID)
	if err != nil {
		return nil, err
	}

	added := result.Added
	resp := &MoveUnitResponse{
		UnitBarcode:         added.Unit.Barcode,
		PreviousBarcode:     result.Removal.Barcode,
		SequenceNumber:      added.Unit.SequenceNumber,
		AddedAt:             added.Unit.AddedAt,
		StorageDays:         added.Unit.StorageDays(uc.stock.Now()),
		Item:                itemSummary(added.Item),
		From:                locationSummary(from),
		To:                  locationSummary(to),
		SourceCleared:       result.Removal.CompletelyRemoved,
		DestinationQuantity: added.Aggregate.Quantity,
	}
	if result.Removal.Remaining != nil {
		resp.SourceRemaining = result.Removal.Remaining.Quantity
	}

	if publish {
		uc.publisher.Publish(ctx, uc.movedEvent(ctx, resp))
	}
	return resp, nil
}

func (uc *MoveUnitUseCase) movedEvent(ctx context.Context, resp *MoveUnitResponse) *messaging.Event {
	event := newEvent(ctx, messaging.EventUnitMoved, uc.stock.Now())
	event.ItemBarcode = resp.Item.Barcode
	event.LocationBarcode = resp.To.Barcode
	event.FromLocationBarcode = resp.From.Barcode
	event.UnitBarcode = resp.UnitBarcode
	event.Sequence = resp.SequenceNumber
	event.StorageDays = resp.StorageDays
	return event
}
