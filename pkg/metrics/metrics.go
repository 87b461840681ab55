// Package metrics 提供基于Prometheus的指标收集
//
// # 指标分组
//
//   - HTTP：请求总数、耗时、并发数（由middleware.Metrics记录）
//   - 库存：单件入库/出库/移库、条码分配（复用/新铸）、条码解析命中步骤
//   - 一致性：事务重试、重试后仍冲突、一致性破坏
//   - 基础组件：熔断器、Saga、消息发布
//
// # 使用示例
//
//	// 1. 启动时初始化一次
//	metrics.InitMetrics()
//
//	// 2. 在gin上暴露/metrics端点
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
//
//	// 3. 业务代码记录指标
//	metrics.IncCounterVec(metrics.UnitsAddedTotal, map[string]string{"source": "scan"})
//
// 辅助函数对nil指标是安全的：未调用InitMetrics时（如单元测试）记录操作直接忽略。
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	initOnce sync.Once

	// HTTP请求相关指标

	// HTTPRequestsTotal HTTP请求总数（Counter）
	// 标签：method、path（路由模板）、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时（Histogram）
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数（Gauge）
	HTTPRequestsInProgress prometheus.Gauge

	// 库存业务指标

	// UnitsAddedTotal 入库单件数
	// 标签：source（scan/move/import）
	UnitsAddedTotal *prometheus.CounterVec

	// UnitsRemovedTotal 出库单件数
	// 标签：policy（fifo/lifo/target/move）
	UnitsRemovedTotal *prometheus.CounterVec

	// AggregatesDeletedTotal 因最后一件出库而删除的库存记录数
	AggregatesDeletedTotal prometheus.Counter

	// BarcodeAllocationsTotal 条码分配次数
	// 标签：result（reused/minted/legacy）
	BarcodeAllocationsTotal *prometheus.CounterVec

	// BarcodesMaterializedTotal 扫码时惰性登记的条码数
	// 标签：kind（legacy/scanned）
	BarcodesMaterializedTotal *prometheus.CounterVec

	// BarcodeResolutionsTotal 条码解析结果
	// 标签：step（cache/item/pool/pattern/unresolved）
	BarcodeResolutionsTotal *prometheus.CounterVec

	// InventoryOperationDuration 库存操作耗时（含重试）
	// 标签：operation、result（success/failure）
	InventoryOperationDuration *prometheus.HistogramVec

	// PoolUtilization 条码池统计查询时观测到的利用率（百分比）分布
	// 不按物品打标签，单个物品的利用率由统计接口返回
	PoolUtilization prometheus.Histogram

	// 一致性指标

	// TransactionRetriesTotal 并发冲突触发的事务重试次数
	TransactionRetriesTotal *prometheus.CounterVec

	// TransientFailuresTotal 重试后仍冲突、以临时错误返回的次数
	TransientFailuresTotal *prometheus.CounterVec

	// ConsistencyViolationsTotal 检测到的一致性破坏
	// 标签：kind（sequence_collision/empty_aggregate）
	ConsistencyViolationsTotal *prometheus.CounterVec

	// 熔断器指标

	// CircuitBreakerState 熔断器状态（Gauge）
	// 0=CLOSED, 1=OPEN, 2=HALF_OPEN
	CircuitBreakerState *prometheus.GaugeVec

	// CircuitBreakerRequests 熔断器请求总数（Counter）
	// 标签：name（熔断器名称）、result（success/failure/rejected）
	CircuitBreakerRequests *prometheus.CounterVec

	// Saga指标

	// SagaExecutionsTotal Saga执行总数（Counter）
	// 标签：result（success/failure）
	SagaExecutionsTotal *prometheus.CounterVec

	// SagaExecutionDuration Saga执行耗时（Histogram）
	SagaExecutionDuration prometheus.Histogram

	// SagaCompensationsTotal Saga补偿执行总数（Counter）
	SagaCompensationsTotal prometheus.Counter

	// 消息队列指标

	// MessagesPublishedTotal 消息发布总数（Counter）
	// 标签：exchange、routing_key、result（success/failure/dropped）
	MessagesPublishedTotal *prometheus.CounterVec
)

// InitMetrics 初始化所有Prometheus指标
//
// 设计要点：
// 1. 使用promauto.New*自动注册到默认Registry
// 2. sync.Once保证重复调用不会重复注册（重复注册会panic）
// 3. Histogram的Buckets按库存操作的耗时特点定制（都是短事务）
func InitMetrics() {
	initOnce.Do(func() {
		// HTTP请求指标
		HTTPRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP请求总数",
			},
			[]string{"method", "path", "status"},
		)

		HTTPRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP请求耗时（秒）",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"method", "path"},
		)

		HTTPRequestsInProgress = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_progress",
				Help: "正在处理的HTTP请求数",
			},
		)

		// 库存业务指标
		UnitsAddedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_units_added_total",
				Help: "入库单件总数",
			},
			[]string{"source"},
		)

		UnitsRemovedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_units_removed_total",
				Help: "出库单件总数",
			},
			[]string{"policy"},
		)

		AggregatesDeletedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "inventory_aggregates_deleted_total",
				Help: "清空后删除的库存记录总数",
			},
		)

		BarcodeAllocationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barcode_pool_allocations_total",
				Help: "条码分配总数（复用/新铸/原条码）",
			},
			[]string{"result"},
		)

		BarcodesMaterializedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barcode_pool_materialized_total",
				Help: "扫码惰性登记的条码总数",
			},
			[]string{"kind"},
		)

		BarcodeResolutionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barcode_resolutions_total",
				Help: "条码解析总数（按命中步骤）",
			},
			[]string{"step"},
		)

		InventoryOperationDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "inventory_operation_duration_seconds",
				Help:    "库存操作耗时（秒）",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"operation", "result"},
		)

		PoolUtilization = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "barcode_pool_utilization_percent",
				Help:    "条码池利用率（百分比）",
				Buckets: prometheus.LinearBuckets(10, 10, 10),
			},
		)

		// 一致性指标
		TransactionRetriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_transaction_retries_total",
				Help: "并发冲突导致的事务重试总数",
			},
			[]string{"operation"},
		)

		TransientFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_transient_failures_total",
				Help: "重试后仍冲突的操作总数",
			},
			[]string{"operation"},
		)

		ConsistencyViolationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_consistency_violations_total",
				Help: "检测到的一致性破坏总数",
			},
			[]string{"kind"},
		)

		// 熔断器指标
		CircuitBreakerState = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
			},
			[]string{"name"},
		)

		CircuitBreakerRequests = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "circuit_breaker_requests_total",
				Help: "熔断器请求总数",
			},
			[]string{"name", "result"},
		)

		// Saga指标
		SagaExecutionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "saga_executions_total",
				Help: "Saga执行总数",
			},
			[]string{"result"},
		)

		SagaExecutionDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "saga_execution_duration_seconds",
				Help:    "Saga执行耗时（秒）",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
			},
		)

		SagaCompensationsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "saga_compensations_total",
				Help: "Saga补偿执行总数",
			},
		)

		// 消息队列指标
		MessagesPublishedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "messages_published_total",
				Help: "消息发布总数",
			},
			[]string{"exchange", "routing_key", "result"},
		)
	})
}

// IncCounter 递增Counter（便捷函数）
func IncCounter(counter prometheus.Counter) {
	if counter == nil {
		return
	}
	counter.Inc()
}

// IncCounterVec 递增CounterVec（带标签）
func IncCounterVec(counter *prometheus.CounterVec, labels map[string]string) {
	if counter == nil {
		return
	}
	counter.With(labels).Inc()
}

// AddCounterVec 按标签累加CounterVec
func AddCounterVec(counter *prometheus.CounterVec, labels map[string]string, value float64) {
	if counter == nil {
		return
	}
	counter.With(labels).Add(value)
}

// IncGauge 递增Gauge
func IncGauge(gauge prometheus.Gauge) {
	if gauge == nil {
		return
	}
	gauge.Inc()
}

// DecGauge 递减Gauge
func DecGauge(gauge prometheus.Gauge) {
	if gauge == nil {
		return
	}
	gauge.Dec()
}

// SetGauge 设置Gauge值
func SetGauge(gauge prometheus.Gauge, value float64) {
	if gauge == nil {
		return
	}
	gauge.Set(value)
}

// SetGaugeVec 设置GaugeVec值（带标签）
func SetGaugeVec(gauge *prometheus.GaugeVec, labels map[string]string, value float64) {
	if gauge == nil {
		return
	}
	gauge.With(labels).Set(value)
}

// ObserveHistogram 记录Histogram观测值
func ObserveHistogram(histogram prometheus.Histogram, value float64) {
	if histogram == nil {
		return
	}
	histogram.Observe(value)
}

// ObserveHistogramVec 记录HistogramVec观测值（带标签）
func ObserveHistogramVec(histogram *prometheus.HistogramVec, labels map[string]string, value float64) {
	if histogram == nil {
		return
	}
	histogram.With(labels).Observe(value)
}
