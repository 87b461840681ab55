package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/stocktrack/pkg/circuitbreaker"
)

type fakeBroker struct {
	mu       sync.Mutex
	fail     bool
	keys     []string
	messages []interface{}
	ctxErr   error
}

func (b *fakeBroker) Publish(ctx context.Context, routingKey string, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ctxErr = ctx.Err()
	if b.fail {
		return errors.New("connection refused")
	}
	b.keys = append(b.keys, routingKey)
	b.messages = append(b.messages, message)
	return nil
}

func (b *fakeBroker) Exchange() string { return "stocktrack.events" }

func newBreaker() *circuitbreaker.CircuitBreaker {
	return circuitbreaker.NewCircuitBreaker("event-publisher", circuitbreaker.Config{
		Timeout: time.Hour,
		ReadyToTrip: func(c circuitbreaker.Counts) bool {
			return c.ConsecutiveFailures >= 2
		},
	})
}

func TestNewEvent(t *testing.T) {
	at := time.Date(2025, 10, 1, 16, 0, 0, 0, time.FixedZone("CST", 8*3600))
	e1 := NewEvent(EventUnitAdded, "scanner-01", at)
	e2 := NewEvent(EventUnitAdded, "scanner-01", at)

	assert.NotEmpty(t, e1.EventID)
	assert.NotEqual(t, e1.EventID, e2.EventID)
	assert.Equal(t, time.UTC, e1.OccurredAt.Location())
	assert.True(t, e1.OccurredAt.Equal(at))
}

func TestMQPublisher_Publish(t *testing.T) {
	broker := &fakeBroker{}
	p := NewMQPublisher(broker, newBreaker(), zap.NewNop())

	event := NewEvent(EventUnitRemoved, "scanner-01", time.Now())
	event.UnitBarcode = "ITM00000001-00003"
	p.Publish(context.Background(), event)

	require.Len(t, broker.messages, 1)
	assert.Equal(t, []string{EventUnitRemoved}, broker.keys)
	assert.Same(t, event, broker.messages[0])
}

func TestMQPublisher_CanceledRequestStillPublishes(t *testing.T) {
	broker := &fakeBroker{}
	p := NewMQPublisher(broker, newBreaker(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Publish(ctx, NewEvent(EventUnitMoved, "", time.Now()))

	require.Len(t, broker.messages, 1)
	assert.NoError(t, broker.ctxErr)
}

func TestMQPublisher_BreakerOpensOnFailures(t *testing.T) {
	broker := &fakeBroker{fail: true}
	breaker := newBreaker()
	p := NewMQPublisher(broker, breaker, zap.NewNop())

	// 失败不会返回给调用方
	p.Publish(context.Background(), NewEvent(EventUnitAdded, "", time.Now()))
	p.Publish(context.Background(), NewEvent(EventUnitAdded, "", time.Now()))
	assert.Equal(t, circuitbreaker.StateOpen, breaker.State())

	// 熔断后即使broker恢复也直接丢弃
	broker.fail = false
	p.Publish(context.Background(), NewEvent(EventUnitAdded, "", time.Now()))
	assert.Empty(t, broker.messages)
}

func TestNoopPublisher(t *testing.T) {
	var p EventPublisher = NoopPublisher{}
	assert.NotPanics(t, func() {
		p.Publish(context.Background(), NewEvent(EventStockImported, "", time.Now()))
	})
}
