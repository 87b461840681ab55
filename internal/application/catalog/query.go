package catalog

import (
	"context"
	"time"

	"github.com/xiebiao/stocktrack/internal/domain/catalog"
	"github.com/xiebiao/stocktrack/internal/domain/stock"
	"github.com/xiebiao/stocktrack/internal/infrastructure/config"
)

// EntryView 库存记录展示(详情页和搜索结果共用)
type EntryView struct {
	ItemBarcode     string    `json:"item_barcode"`
	ItemName        string    `json:"item_name"`
	LocationBarcode string    `json:"location_barcode"`
	LocationName    string    `json:"location_name"`
	Quantity        int       `json:"quantity"`
	AddedAt         time.Time `json:"added_at"`
	StorageDays     float64   `json:"storage_days"`
	AgingLevel      string    `json:"aging_level"`
}

// entryViewer 按展示配置给库存记录标注库龄
type entryViewer struct {
	presentation config.Presentation
	now          func() time.Time
}

func (v entryViewer) views(entries []*stock.Entry) []EntryView {
	now := v.now()
	out := make([]EntryView, len(entries))
	for i, e := range entries {
		days := stock.StorageDays(e.AddedAt, now)
		out[i] = EntryView{
			ItemBarcode:     e.ItemBarcode,
			ItemName:        e.ItemName,
			LocationBarcode: e.LocationBarcode,
			LocationName:    e.LocationName,
			Quantity:        e.Quantity,
			AddedAt:         e.AddedAt,
			StorageDays:     days,
			AgingLevel:      v.presentation.AgingLevel(days),
		}
	}
	return out
}

// QueryUseCase 目录查询用例(详情、列表、库存搜索)
// 设计说明:
// 1. 列表不带库存明细,详情页才查询库存记录
// 2. 搜索匹配物品名称、物品条码、库位名称,最新入库在前
type QueryUseCase struct {
	catalog    catalog.Service
	aggregates stock.AggregateRepository
	viewer     entryViewer
}

// NewQueryUseCase 创建目录查询用例
func NewQueryUseCase(catalogService catalog.Service, aggregates stock.AggregateRepository, presentation config.Presentation) *QueryUseCase {
	return &QueryUseCase{
		catalog:    catalogService,
		aggregates: aggregates,
		viewer:     entryViewer{presentation: presentation, now: time.Now},
	}
}

// ItemDetailResponse 物品详情DTO
type ItemDetailResponse struct {
	ItemResponse
	Entries []EntryView `json:"entries"`
}

// LocationDetailResponse 库位详情DTO
type LocationDetailResponse struct {
	LocationResponse
	Entries []EntryView `json:"entries"`
}

// ListRequest 列表查询请求DTO
type ListRequest struct {
	Page     int
	PageSize int
	Keyword  string
}

// ListResponse 分页响应DTO
type ListResponse[T any] struct {
	List     []T   `json:"list"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

// GetItem 物品详情(含各库位的库存记录)
func (uc *QueryUseCase) GetItem(ctx context.Context, barcode string) (*ItemDetailResponse, error) {
	item, err := uc.catalog.GetItemByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	entries, err := uc.aggregates.ListEntriesByItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	return &ItemDetailResponse{
		ItemResponse: *toItemResponse(item),
		Entries:      uc.viewer.views(entries),
	}, nil
}

// GetLocation 库位详情(含各物品的库存记录)
func (uc *QueryUseCase) GetLocation(ctx context.Context, barcode string) (*LocationDetailResponse, error) {
	location, err := uc.catalog.GetLocationByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	entries, err := uc.aggregates.ListEntriesByLocation(ctx, location.ID)
	if err != nil {
		return nil, err
	}
	return &LocationDetailResponse{
		LocationResponse: *toLocationResponse(location),
		Entries:          uc.viewer.views(entries),
	}, nil
}

// ListItems 物品分页列表
func (uc *QueryUseCase) ListItems(ctx context.Context, req ListRequest) (*ListResponse[*ItemResponse], error) {
	params := catalog.ListParams{Page: req.Page, PageSize: req.PageSize, Keyword: req.Keyword}.Normalize()
	items, total, err := uc.catalog.ListItems(ctx, params)
	if err != nil {
		return nil, err
	}
	list := make([]*ItemResponse, len(items))
	for i, item := range items {
		list[i] = toItemResponse(item)
	}
	return &ListResponse[*ItemResponse]{List: list, Total: total, Page: params.Page, PageSize: params.PageSize}, nil
}

// ListLocations 库位分页列表
func (uc *QueryUseCase) ListLocations(ctx context.Context, req ListRequest) (*ListResponse[*LocationResponse], error) {
	params := catalog.ListParams{Page: req.Page, PageSize: req.PageSize, Keyword: req.Keyword}.Normalize()
	locations, total, err := uc.catalog.ListLocations(ctx, params)
	if err != nil {
		return nil, err
	}
	list := make([]*LocationResponse, len(locations))
	for i, loc := range locations {
		list[i] = toLocationResponse(loc)
	}
	return &ListResponse[*LocationResponse]{List: list, Total: total, Page: params.Page, PageSize: params.PageSize}, nil
}

// SearchInventory 库存搜索
func (uc *QueryUseCase) SearchInventory(ctx context.Context, req ListRequest) (*ListResponse[EntryView], error) {
	params := stock.SearchParams{Keyword: req.Keyword, Page: req.Page, PageSize: req.PageSize}.Normalize()
	entries, total, err := uc.aggregates.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	return &ListResponse[EntryView]{
		List:     uc.viewer.views(entries),
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	}, nil
}
