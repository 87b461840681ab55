package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestBreaker(clock *fakeClock) *CircuitBreaker {
	return NewCircuitBreaker("test", Config{
		MaxRequests: 2,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		Now: clock.Now,
	})
}

var errDownstream = errors.New("broker unavailable")

// TestCircuitBreaker_ClosedState 成功请求保持关闭
func TestCircuitBreaker_ClosedState(t *testing.T) {
	cb := newTestBreaker(&fakeClock{now: time.Unix(0, 0)})

	for i := 0; i < 10; i++ {
		if err := cb.Execute(func() error { return nil }); err != nil {
			t.Fatalf("期望成功，实际失败: %v", err)
		}
	}

	if cb.State() != StateClosed {
		t.Errorf("期望状态为CLOSED，实际%s", cb.State())
	}
	if got := cb.Counts().TotalSuccesses; got != 10 {
		t.Errorf("期望成功10次，实际%d次", got)
	}
}

// TestCircuitBreaker_OpenState 连续失败达到阈值后熔断
func TestCircuitBreaker_OpenState(t *testing.T) {
	cb := newTestBreaker(&fakeClock{now: time.Unix(0, 0)})

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errDownstream })
	}

	if cb.State() != StateOpen {
		t.Fatalf("期望状态为OPEN，实际%s", cb.State())
	}

	called := false
	err := cb.Execute(func() error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrOpenState) {
		t.Errorf("期望ErrOpenState，实际%v", err)
	}
	if called {
		t.Error("熔断期间不应调用下游")
	}
}

// TestCircuitBreaker_HalfOpenToClosed 超时后半开，探测成功恢复
func TestCircuitBreaker_HalfOpenToClosed(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	cb := newTestBreaker(clock)

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errDownstream })
	}
	clock.Advance(31 * time.Second)

	if cb.State() != StateHalfOpen {
		t.Fatalf("期望状态为HALF_OPEN，实际%s", cb.State())
	}

	for i := 0; i < 2; i++ {
		if err := cb.Execute(func() error { return nil }); err != nil {
			t.Fatalf("探测请求失败: %v", err)
		}
	}

	if cb.State() != StateClosed {
		t.Errorf("期望状态为CLOSED，实际%s", cb.State())
	}
}

// TestCircuitBreaker_HalfOpenToOpen 半开探测失败立即回到OPEN
func TestCircuitBreaker_HalfOpenToOpen(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	cb := newTestBreaker(clock)

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errDownstream })
	}
	clock.Advance(31 * time.Second)

	_ = cb.Execute(func() error { return errDownstream })

	if cb.State() != StateOpen {
		t.Errorf("期望状态为OPEN，实际%s", cb.State())
	}
}

// TestCircuitBreaker_IntervalResetsCounts 统计窗口到期后清零
func TestCircuitBreaker_IntervalResetsCounts(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	cb := newTestBreaker(clock)

	_ = cb.Execute(func() error { return errDownstream })
	_ = cb.Execute(func() error { return errDownstream })
	clock.Advance(11 * time.Second)
	_ = cb.Execute(func() error { return errDownstream })

	if cb.State() != StateClosed {
		t.Errorf("窗口清零后不应熔断，实际%s", cb.State())
	}
	if got := cb.Counts().ConsecutiveFailures; got != 1 {
		t.Errorf("期望连续失败1次，实际%d次", got)
	}
}

// TestCircuitBreaker_StateChangeCallback 状态切换回调
func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	cb := newTestBreaker(clock)

	var transitions []string
	cb.SetStateChangeCallback(func(name string, from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errDownstream })
	}
	clock.Advance(31 * time.Second)
	_ = cb.Execute(func() error { return nil })
	_ = cb.Execute(func() error { return nil })

	want := []string{"CLOSED->OPEN", "OPEN->HALF_OPEN", "HALF_OPEN->CLOSED"}
	if len(transitions) != len(want) {
		t.Fatalf("期望%v，实际%v", want, transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("第%d次切换期望%s，实际%s", i, want[i], transitions[i])
		}
	}
}

// TestCircuitBreaker_CanceledContextNotCounted 调用方取消不算下游失败
func TestCircuitBreaker_CanceledContextNotCounted(t *testing.T) {
	cb := newTestBreaker(&fakeClock{now: time.Unix(0, 0)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 5; i++ {
		_ = cb.ExecuteContext(ctx, func(ctx context.Context) error { return ctx.Err() })
	}

	if cb.State() != StateClosed {
		t.Errorf("期望状态为CLOSED，实际%s", cb.State())
	}
}

// TestCounts_FailureRate 失败率计算
func TestCounts_FailureRate(t *testing.T) {
	c := Counts{Requests: 4, TotalFailures: 1}
	if c.FailureRate() != 0.25 {
		t.Errorf("期望0.25，实际%f", c.FailureRate())
	}
	if (Counts{}).FailureRate() != 0 {
		t.Error("无请求时失败率应为0")
	}
}
