package dto

import (
	"math"
	"time"

	appcatalog "github.com/xiebiao/stocktrack/internal/application/catalog"
	"github.com/xiebiao/stocktrack/internal/application/inventory"
	"github.com/xiebiao/stocktrack/internal/application/report"
)

// AddItemRequest HTTP入库请求
// item_barcode是扫码枪读到的原始字符串:物品条码或贴在单件上的标签
type AddItemRequest struct {
	LocationBarcode string     `json:"location_barcode" binding:"required,max=64" example:"LOC4K7Q2M9A"`
	ItemBarcode     string     `json:"item_barcode" binding:"required,max=64" example:"ITMX8R2K5PQ-00007"`
	AddedAt         *time.Time `json:"added_at" example:"2024-01-15T10:30:00Z"` // 补录时的入库时间,缺省为当前时间
}

// RemoveItemRequest HTTP出库请求
// policy为空时使用配置的默认策略;target_barcode指定要移除的单件
type RemoveItemRequest struct {
	LocationBarcode string `json:"location_barcode" binding:"required,max=64" example:"LOC4K7Q2M9A"`
	ItemBarcode     string `json:"item_barcode" binding:"required,max=64" example:"ITMX8R2K5PQ"`
	Policy          string `json:"policy" binding:"max=16" example:"fifo"`
	TargetBarcode   string `json:"target_barcode" binding:"max=64" example:"ITMX8R2K5PQ-00003"`
}

// MoveRequest HTTP移库请求
type MoveRequest struct {
	UnitBarcode       string `json:"unit_barcode" binding:"required,max=64" example:"ITMX8R2K5PQ-00003"`
	ToLocationBarcode string `json:"to_location_barcode" binding:"required,max=64" example:"LOCB7N3X1ZE"`
}

// MoveBatchRequest HTTP批量移库请求
// 条数上限和重复校验由用例负责,错误码与单件移库一致
type MoveBatchRequest struct {
	UnitBarcodes      []string `json:"unit_barcodes" example:"ITMX8R2K5PQ-00003,ITMX8R2K5PQ-00004"`
	ToLocationBarcode string   `json:"to_location_barcode" binding:"required,max=64" example:"LOCB7N3X1ZE"`
}

// ImportRequest HTTP存量导入请求
type ImportRequest struct {
	ItemBarcode     string     `json:"item_barcode" binding:"required,max=64" example:"ITMX8R2K5PQ"`
	LocationBarcode string     `json:"location_barcode" binding:"required,max=64" example:"LOC4K7Q2M9A"`
	Quantity        int        `json:"quantity" binding:"required,min=1,max=10000" example:"12"`
	AddedAt         *time.Time `json:"added_at" example:"2023-11-02T00:00:00Z"`
}

// SearchRequest HTTP库存搜索/列表请求
type SearchRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
	Keyword  string `form:"q" binding:"max=100" example:"peas"`
}

// ListQuery 转换为应用层列表请求
func (r SearchRequest) ListQuery() appcatalog.ListRequest {
	return appcatalog.ListRequest{Page: r.Page, PageSize: r.PageSize, Keyword: r.Keyword}
}

// RoundDays 库龄保留一位小数(仅用于展示,领域结果保留原值)
// 例如:10.04 → 10.0,10.05 → 10.1
func RoundDays(days float64) float64 {
	return math.Round(days*10) / 10
}

// RemoveItemResponse 出库结果(库龄已取整)
func RemoveItemResponse(r *inventory.RemoveUnitResponse) *inventory.RemoveUnitResponse {
	out := *r
	out.StorageDays = RoundDays(out.StorageDays)
	return &out
}

// MoveResponse 移库结果(库龄已取整)
func MoveResponse(r *inventory.MoveUnitResponse) *inventory.MoveUnitResponse {
	out := *r
	out.StorageDays = RoundDays(out.StorageDays)
	return &out
}

// MoveBatchResponse 批量移库结果
func MoveBatchResponse(r *inventory.MoveBatchResponse) *inventory.MoveBatchResponse {
	moved := make([]*inventory.MoveUnitResponse, len(r.Moved))
	for i, m := range r.Moved {
		moved[i] = MoveResponse(m)
	}
	return &inventory.MoveBatchResponse{Moved: moved, Count: r.Count}
}

// UnitsResponse 单件列表
func UnitsResponse(r *inventory.ListUnitsResponse) *inventory.ListUnitsResponse {
	out := *r
	out.Units = make([]inventory.UnitView, len(r.Units))
	for i, u := range r.Units {
		u.StorageDays = RoundDays(u.StorageDays)
		out.Units[i] = u
	}
	return &out
}

// Entries 库存记录列表
func Entries(entries []appcatalog.EntryView) []appcatalog.EntryView {
	out := make([]appcatalog.EntryView, len(entries))
	for i, e := range entries {
		e.StorageDays = RoundDays(e.StorageDays)
		out[i] = e
	}
	return out
}

// AgingReport 库龄报表
func AgingReport(r *report.AgingReportResponse) *report.AgingReportResponse {
	out := *r
	out.Rows = make([]report.AgingRow, len(r.Rows))
	for i, row := range r.Rows {
		row.StorageDays = RoundDays(row.StorageDays)
		out.Rows[i] = row
	}
	if r.Oldest != nil {
		oldest := *r.Oldest
		oldest.StorageDays = RoundDays(oldest.StorageDays)
		out.Oldest = &oldest
	}
	return &out
}
