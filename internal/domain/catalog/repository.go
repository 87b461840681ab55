package catalog

import (
	"context"
)

// ItemRepository 物品仓储接口
// 由domain层定义,infrastructure层(mysql/memory)实现
type ItemRepository interface {
	// Create 创建物品,条码唯一索引冲突返回ErrDuplicateBarcode
	Create(ctx context.Context, item *Item) error

	FindByID(ctx context.Context, id uint) (*Item, error)

	// FindByBarcode 按外部条码精确查找
	FindByBarcode(ctx context.Context, barcode string) (*Item, error)

	// LockByID 悲观锁查询(SELECT ... FOR UPDATE)
	// 同一物品的单件增删都先锁物品行,保证总数重算不被并发写穿插
	LockByID(ctx context.Context, id uint) (*Item, error)

	// RefreshTotalQuantity 按在库单件数重算total_quantity并返回新值
	RefreshTotalQuantity(ctx context.Context, id uint) (int, error)

	List(ctx context.Context, params ListParams) ([]*Item, int64, error)
}

// LocationRepository 库位仓储接口
type LocationRepository interface {
	Create(ctx context.Context, location *Location) error
	FindByID(ctx context.Context, id uint) (*Location, error)
	FindByBarcode(ctx context.Context, barcode string) (*Location, error)

	// List 分页查询,TotalItems由在库单件统计填充
	List(ctx context.Context, params ListParams) ([]*Location, int64, error)
}

// CategoryRepository 分类仓储接口
type CategoryRepository interface {
	// FindOrCreate 按名称查找,不存在则创建(名称唯一)
	FindOrCreate(ctx context.Context, name string) (*Category, error)
}

// ListParams 列表查询参数
type ListParams struct {
	Page     int    // 页码(从1开始)
	PageSize int    // 每页数量
	Keyword  string // 名称/条码模糊匹配,不区分大小写
}

// Normalize 修正分页参数
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	return p
}

// Offset 分页偏移量
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}
