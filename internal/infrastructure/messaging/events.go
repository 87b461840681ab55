// Package messaging 单件生命周期事件
//
// 事件在库存事务提交之后发布，发布失败不回滚库存。
// routing_key即事件类型，订阅方可以按unit.*或#绑定。
package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// 事件类型
const (
	EventUnitAdded     = "unit.added"
	EventUnitRemoved   = "unit.removed"
	EventUnitMoved     = "unit.moved"
	EventStockImported = "stock.imported"
)

// Event 库存事件
type Event struct {
	EventID         string    `json:"event_id"`
	Type            string    `json:"type"`
	OccurredAt      time.Time `json:"occurred_at"`
	Actor           string    `json:"actor,omitempty"`
	ItemBarcode     string    `json:"item_barcode"`
	LocationBarcode string    `json:"location_barcode"`
	// FromLocationBarcode 仅unit.moved
	FromLocationBarcode string  `json:"from_location_barcode,omitempty"`
	UnitBarcode         string  `json:"unit_barcode,omitempty"`
	Sequence            int     `json:"sequence,omitempty"`
	StorageDays         float64 `json:"storage_days,omitempty"`
	// Quantity 仅stock.imported
	Quantity int `json:"quantity,omitempty"`
}

// NewEvent 创建事件，生成event_id
func NewEvent(eventType, actor string, occurredAt time.Time) *Event {
	return &Event{
		EventID:    uuid.NewString(),
		Type:       eventType,
		OccurredAt: occurredAt.UTC(),
		Actor:      actor,
	}
}

// EventPublisher 事件发布接口
// 实现必须是尽力而为的：失败只记录日志和指标，不向调用方返回错误
type EventPublisher interface {
	Publish(ctx context.Context, event *Event)
}

// NoopPublisher 未启用消息队列时使用
type NoopPublisher struct{}

// Publish 丢弃事件
func (NoopPublisher) Publish(context.Context, *Event) {}
