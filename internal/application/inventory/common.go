package inventory

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/xiebiao/stocktrack/internal/domain/catalog"
	"github.com/xiebiao/stocktrack/internal/domain/stock"
	"github.com/xiebiao/stocktrack/internal/infrastructure/config"
	"github.com/xiebiao/stocktrack/internal/infrastructure/messaging"
	"github.com/xiebiao/stocktrack/pkg/jwt"
	"github.com/xiebiao/stocktrack/pkg/metrics"
	"github.com/xiebiao/stocktrack/pkg/tracing"
)

const tracerName = "stocktrack/inventory"

// Settings 库存用例的默认参数
type Settings struct {
	DefaultPolicy   stock.RemovalPolicy
	DefaultPoolSize int
}

// NewSettings 从配置读取默认参数(供wire注入)
func NewSettings(cfg *config.Config) Settings {
	s := Settings{
		DefaultPolicy:   stock.RemovalPolicy(cfg.Inventory.DefaultRemovalPolicy),
		DefaultPoolSize: cfg.Inventory.DefaultPoolSize,
	}
	if !s.DefaultPolicy.Valid() {
		s.DefaultPolicy = stock.PolicyFIFO
	}
	if s.DefaultPoolSize <= 0 {
		s.DefaultPoolSize = stock.DefaultPoolTarget
	}
	return s
}

// ItemSummary 物品摘要
type ItemSummary struct {
	Barcode       string `json:"barcode"`
	Name          string `json:"name"`
	TotalQuantity int    `json:"total_quantity"`
}

// LocationSummary 库位摘要
type LocationSummary struct {
	Barcode string `json:"barcode"`
	Name    string `json:"name"`
}

func itemSummary(item *catalog.Item) ItemSummary {
	return ItemSummary{Barcode: item.Barcode, Name: item.Name, TotalQuantity: item.TotalQuantity}
}

func locationSummary(loc *catalog.Location) LocationSummary {
	return LocationSummary{Barcode: loc.Barcode, Name: loc.Name}
}

// observe 开启用例Span并在结束时记录耗时
// 用法: ctx, done := observe(ctx, "add_unit"); defer func() { done(err) }()
func observe(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(err error)) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, tracerName, "inventory."+operation, attrs...)
	return ctx, func(err error) {
		result := "success"
		if err != nil {
			result = "failure"
		}
		metrics.ObserveHistogramVec(metrics.InventoryOperationDuration,
			map[string]string{"operation": operation, "result": result},
			time.Since(start).Seconds())
		tracing.EndSpan(span, err)
	}
}

// newEvent 以当前设备为操作者创建事件
func newEvent(ctx context.Context, eventType string, at time.Time) *messaging.Event {
	return messaging.NewEvent(eventType, jwt.DeviceFromContext(ctx), at)
}
