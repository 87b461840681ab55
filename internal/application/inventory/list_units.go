package inventory

import (
	"context"
	"time"

	"github.com/xiebiao/stocktrack/internal/domain/catalog"
	"github.com/xiebiao/stocktrack/internal/domain/stock"
	"github.com/xiebiao/stocktrack/internal/infrastructure/config"
)

// ListUnitsUseCase 单件列表用例(某库位某物品的全部单件)
// 库龄等级由展示配置决定,库存核心不关心
type ListUnitsUseCase struct {
	catalog      catalog.Service
	stock        *stock.Service
	presentation config.Presentation
}

// NewListUnitsUseCase 创建单件列表用例
func NewListUnitsUseCase(catalogService catalog.Service, stockService *stock.Service, presentation config.Presentation) *ListUnitsUseCase {
	return &ListUnitsUseCase{
		catalog:      catalogService,
		stock:        stockService,
		presentation: presentation,
	}
}

// ListUnitsRequest 单件列表请求DTO
type ListUnitsRequest struct {
	LocationBarcode string
	ItemBarcode     string
}

// UnitView 单件展示
type UnitView struct {
	Barcode        string    `json:"barcode"`
	SequenceNumber int       `json:"sequence_number"`
	AddedAt        time.Time `json:"added_at"`
	StorageDays    float64   `json:"storage_days"`
	AgingLevel     string    `json:"aging_level"`
	AgingLabel     string    `json:"aging_label"`
}

// ListUnitsResponse 单件列表响应DTO
type ListUnitsResponse struct {
	Item     ItemSummary     `json:"item"`
	Location LocationSummary `json:"location"`
	Quantity int             `json:"quantity"`
	AddedAt  time.Time       `json:"added_at"`
	Units    []UnitView      `json:"units"`
}

// Execute 查询单件,最早入库在前
func (uc *ListUnitsUseCase) Execute(ctx context.Context, req ListUnitsRequest) (*ListUnitsResponse, error) {
	location, err := uc.catalog.GetLocationByBarcode(ctx, req.LocationBarcode)
	if err != nil {
		return nil, err
	}
	item, err := uc.catalog.GetItemByBarcode(ctx, req.ItemBarcode)
	if err != nil {
		return nil, err
	}

	agg, units, err := uc.stock.ListUnits(ctx, item.ID, location.ID)
	if err != nil {
		return nil, err
	}

	now := uc.stock.Now()
	views := make([]UnitView, len(units))
	for i, u := range units {
		days := u.StorageDays(now)
		level := uc.presentation.AgingLevel(days)
		views[i] = UnitView{
			Barcode:        u.Barcode,
			SequenceNumber: u.SequenceNumber,
			AddedAt:        u.AddedAt,
			StorageDays:    days,
			AgingLevel:     level,
			AgingLabel:     uc.presentation.AgingLabel(level),
		}
	}

	return &ListUnitsResponse{
		Item:     itemSummary(item),
		Location: locationSummary(location),
		Quantity: agg.Quantity,
		AddedAt:  agg.AddedAt,
		Units:    views,
	}, nil
}
