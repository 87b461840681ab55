package messaging

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/stocktrack/pkg/circuitbreaker"
	"github.com/xiebiao/stocktrack/pkg/metrics"
)

const publishTimeout = 2 * time.Second

// Broker 消息发布能力(*mq.Publisher实现)
type Broker interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
	Exchange() string
}

// MQPublisher 基于RabbitMQ的事件发布者
// 设计说明：
// 1. 熔断器包住每次发布，消息队列宕机时直接丢弃事件，不占用请求时间
// 2. 发布使用脱离请求取消信号的context，事务已提交的事件不会因为客户端断开而丢失
// 3. 结果计入messages_published_total（success/failure/dropped）
type MQPublisher struct {
	broker  Broker
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewMQPublisher 创建事件发布者
func NewMQPublisher(broker Broker, breaker *circuitbreaker.CircuitBreaker, logger *zap.Logger) *MQPublisher {
	return &MQPublisher{broker: broker, breaker: breaker, logger: logger}
}

// Publish 发布事件
func (p *MQPublisher) Publish(ctx context.Context, event *Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := p.breaker.ExecuteContext(ctx, func(ctx context.Context) error {
		return p.broker.Publish(ctx, event.Type, event)
	})

	result := "success"
	switch {
	case err == nil:
	case errors.Is(err, circuitbreaker.ErrOpenState):
		result = "dropped"
		p.logger.Warn("event dropped, broker circuit open",
			zap.String("event_id", event.EventID),
			zap.String("type", event.Type),
		)
	default:
		result = "failure"
		p.logger.Error("event publish failed",
			zap.String("event_id", event.EventID),
			zap.String("type", event.Type),
			zap.Error(err),
		)
	}

	metrics.IncCounterVec(metrics.MessagesPublishedTotal, map[string]string{
		"exchange":    p.broker.Exchange(),
		"routing_key": event.Type,
		"result":      result,
	})
}
