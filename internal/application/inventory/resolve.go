package inventory

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/xiebiao/stocktrack/internal/domain/stock"
)

// ResolveBarcodeUseCase 扫码解析用例
// 注意:形如<物品条码>-<5位数字>且尚未登记的标签会在解析时写入条码池
type ResolveBarcodeUseCase struct {
	resolver *stock.Resolver
}

// NewResolveBarcodeUseCase 创建解析用例
func NewResolveBarcodeUseCase(resolver *stock.Resolver) *ResolveBarcodeUseCase {
	return &ResolveBarcodeUseCase{resolver: resolver}
}

// PoolBarcodeView 条码池条目
type PoolBarcodeView struct {
	Barcode string `json:"barcode"`
	InUse   bool   `json:"in_use"`
	Legacy  bool   `json:"legacy"`
}

// ResolveBarcodeResponse 解析响应DTO
type ResolveBarcodeResponse struct {
	Scanned      string           `json:"scanned"`
	Step         string           `json:"step"`
	Materialized bool             `json:"materialized"`
	Item         ItemSummary      `json:"item"`
	PoolBarcode  *PoolBarcodeView `json:"pool_barcode,omitempty"`
}

// Execute 执行解析,无法识别返回ErrUnresolved
func (uc *ResolveBarcodeUseCase) Execute(ctx context.Context, scanned string) (resp *ResolveBarcodeResponse, err error) {
	ctx, done := observe(ctx, "resolve_barcode", attribute.String("scanned", scanned))
	defer func() { done(err) }()

	res, err := uc.resolver.ResolveAndRegister(ctx, scanned)
	if err != nil {
		return nil, err
	}

	resp = &ResolveBarcodeResponse{
		Scanned:      trimmed(scanned),
		Step:         res.Step,
		Materialized: res.Materialized,
		Item:         itemSummary(res.Item),
	}
	if pb := res.PoolBarcode; pb != nil {
		resp.PoolBarcode = &PoolBarcodeView{
			Barcode: pb.Barcode,
			InUse:   pb.InUse,
			Legacy:  pb.IsLegacy(res.Item.Barcode),
		}
	}
	return resp, nil
}
