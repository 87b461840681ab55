package catalog

import (
	"strings"
	"time"
)

// Item 物品实体
// 设计说明:
// 1. Barcode是外部条码,创建时生成,之后不可修改
// 2. TotalQuantity是所有库位在库单件数的缓存,每次单件增删后整体重算(不做增量加减)
type Item struct {
	ID            uint
	Barcode       string
	Name          string
	Description   string
	CategoryID    *uint
	CategoryName  string // 只读,查询时填充
	TotalQuantity int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewItem 创建物品(工厂方法)
func NewItem(barcode, name, description string, categoryID *uint) *Item {
	now := time.Now()
	return &Item{
		Barcode:     barcode,
		Name:        strings.TrimSpace(name),
		Description: description,
		CategoryID:  categoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Location 库位实体(冰箱/仓库/门店...)
// 只是分组键,TotalItems由在库单件实时统计
type Location struct {
	ID          uint
	Barcode     string
	Name        string
	Description string
	TotalItems  int // 只读,查询时填充
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewLocation 创建库位(工厂方法)
func NewLocation(barcode, name, description string) *Location {
	now := time.Now()
	return &Location{
		Barcode:     barcode,
		Name:        strings.TrimSpace(name),
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Category 物品分类,按名称查找或创建
type Category struct {
	ID        uint
	Name      string
	CreatedAt time.Time
}
