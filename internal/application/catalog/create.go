package catalog

import (
	"context"
	"time"

	"github.com/xiebiao/stocktrack/internal/domain/catalog"
)

// CreateItemUseCase 创建物品用例
type CreateItemUseCase struct {
	catalog catalog.Service
}

// NewCreateItemUseCase 创建物品用例
func NewCreateItemUseCase(catalogService catalog.Service) *CreateItemUseCase {
	return &CreateItemUseCase{catalog: catalogService}
}

// CreateItemRequest 创建物品请求DTO
type CreateItemRequest struct {
	Name        string
	Description string
	Category    string // 分类名称,不存在时自动创建
}

// ItemResponse 物品DTO
type ItemResponse struct {
	ID            uint      `json:"id"`
	Barcode       string    `json:"barcode"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Category      string    `json:"category,omitempty"`
	TotalQuantity int       `json:"total_quantity"`
	CreatedAt     time.Time `json:"created_at"`
}

// Execute 执行创建,条码由系统生成
func (uc *CreateItemUseCase) Execute(ctx context.Context, req CreateItemRequest) (*ItemResponse, error) {
	item, err := uc.catalog.CreateItem(ctx, req.Name, req.Description, req.Category)
	if err != nil {
		return nil, err
	}
	return toItemResponse(item), nil
}

// CreateLocationUseCase 创建库位用例
type CreateLocationUseCase struct {
	catalog catalog.Service
}

// NewCreateLocationUseCase 创建库位用例
func NewCreateLocationUseCase(catalogService catalog.Service) *CreateLocationUseCase {
	return &CreateLocationUseCase{catalog: catalogService}
}

// CreateLocationRequest 创建库位请求DTO
type CreateLocationRequest struct {
	Name        string
	Description string
}

// LocationResponse 库位DTO
type LocationResponse struct {
	ID          uint      `json:"id"`
	Barcode     string    `json:"barcode"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	TotalItems  int       `json:"total_items"`
	CreatedAt   time.Time `json:"created_at"`
}

// Execute 执行创建
func (uc *CreateLocationUseCase) Execute(ctx context.Context, req CreateLocationRequest) (*LocationResponse, error) {
	location, err := uc.catalog.CreateLocation(ctx, req.Name, req.Description)
	if err != nil {
		return nil, err
	}
	return toLocationResponse(location), nil
}

func toItemResponse(item *catalog.Item) *ItemResponse {
	return &ItemResponse{
		ID:            item.ID,
		Barcode:       item.Barcode,
		Name:          item.Name,
		Description:   item.Description,
		Category:      item.CategoryName,
		TotalQuantity: item.TotalQuantity,
		CreatedAt:     item.CreatedAt,
	}
}

func toLocationResponse(loc *catalog.Location) *LocationResponse {
	return &LocationResponse{
		ID:          loc.ID,
		Barcode:     loc.Barcode,
		Name:        loc.Name,
		Description: loc.Description,
		TotalItems:  loc.TotalItems,
		CreatedAt:   loc.CreatedAt,
	}
}
