package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestInitMetrics 测试指标初始化（重复调用不会panic）
func TestInitMetrics(t *testing.T) {
	InitMetrics()
	InitMetrics()

	if HTTPRequestsTotal == nil || UnitsAddedTotal == nil || BarcodeAllocationsTotal == nil {
		t.Fatal("指标未初始化")
	}
}

// TestNilSafeHelpers 未初始化的指标记录操作应被忽略
func TestNilSafeHelpers(t *testing.T) {
	var counter prometheus.Counter
	var counterVec *prometheus.CounterVec
	var gauge prometheus.Gauge
	var histogramVec *prometheus.HistogramVec

	IncCounter(counter)
	IncCounterVec(counterVec, map[string]string{"source": "scan"})
	SetGauge(gauge, 1)
	ObserveHistogramVec(histogramVec, map[string]string{"operation": "add"}, 0.1)
}

// TestCounterVec 按标签计数
func TestCounterVec(t *testing.T) {
	InitMetrics()

	before := testutil.ToFloat64(BarcodeAllocationsTotal.WithLabelValues("reused"))

	IncCounterVec(BarcodeAllocationsTotal, map[string]string{"result": "reused"})
	IncCounterVec(BarcodeAllocationsTotal, map[string]string{"result": "reused"})
	IncCounterVec(BarcodeAllocationsTotal, map[string]string{"result": "minted"})

	got := testutil.ToFloat64(BarcodeAllocationsTotal.WithLabelValues("reused"))
	if got-before != 2 {
		t.Errorf("reused计数错误: expected=2, got=%f", got-before)
	}
}

// TestGaugeVec 按名字设置熔断器状态
func TestGaugeVec(t *testing.T) {
	InitMetrics()

	SetGaugeVec(CircuitBreakerState, map[string]string{"name": "metrics-test"}, 2)

	got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("metrics-test"))
	if got != 2 {
		t.Errorf("Gauge值错误: expected=2, got=%f", got)
	}
}

// TestPoolUtilization 利用率只有一条序列，物品再多也不会增长
func TestPoolUtilization(t *testing.T) {
	InitMetrics()

	for _, value := range []float64{0, 33.3, 66.7, 100} {
		ObserveHistogram(PoolUtilization, value)
	}

	if got := testutil.CollectAndCount(PoolUtilization); got != 1 {
		t.Errorf("序列数错误: expected=1, got=%d", got)
	}
}

// TestGauge 并发请求数增减
func TestGauge(t *testing.T) {
	InitMetrics()

	SetGauge(HTTPRequestsInProgress, 0)
	IncGauge(HTTPRequestsInProgress)
	IncGauge(HTTPRequestsInProgress)
	DecGauge(HTTPRequestsInProgress)

	if got := testutil.ToFloat64(HTTPRequestsInProgress); got != 1 {
		t.Errorf("Gauge值错误: expected=1, got=%f", got)
	}
}
