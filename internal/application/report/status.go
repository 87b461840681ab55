package report

import (
	"context"
	"time"
)

// StatusChecker 数据库连通性与规模统计
// mysql.Status和memory.Store都实现了它
type StatusChecker interface {
	Ping(ctx context.Context) error
	Counts(ctx context.Context) (locations, items, aggregates, units int64, err error)
}

// DatabaseStatus 数据库状态
type DatabaseStatus struct {
	Connected            bool   `json:"connected"`
	Error                string `json:"error,omitempty"`
	LocationsCount       int64  `json:"locations_count"`
	ItemsCount           int64  `json:"items_count"`
	StockAggregatesCount int64  `json:"stock_aggregates_count"`
	UnitsCount           int64  `json:"units_count"`
}

// StatusResponse 系统状态DTO
type StatusResponse struct {
	Status    string         `json:"status"`
	Version   string         `json:"version"`
	Timestamp time.Time      `json:"timestamp"`
	Database  DatabaseStatus `json:"database"`
}

// StatusUseCase 系统状态用例
// 数据库故障不作为错误返回,而是体现在connected=false和错误文本里
type StatusUseCase struct {
	checker StatusChecker
	version string
	now     func() time.Time
}

// NewStatusUseCase 创建系统状态用例
func NewStatusUseCase(checker StatusChecker, version string) *StatusUseCase {
	return &StatusUseCase{checker: checker, version: version, now: time.Now}
}

// Execute 查询状态
func (uc *StatusUseCase) Execute(ctx context.Context) *StatusResponse {
	resp := &StatusResponse{
		Status:    "ok",
		Version:   uc.version,
		Timestamp: uc.now().UTC(),
	}

	if err := uc.checker.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Database.Error = err.Error()
		return resp
	}

	locations, items, aggregates, units, err := uc.checker.Counts(ctx)
	if err != nil {
		resp.Status = "degraded"
		resp.Database.Error = err.Error()
		return resp
	}

	resp.Database = DatabaseStatus{
		Connected:            true,
		LocationsCount:       locations,
		ItemsCount:           items,
		StockAggregatesCount: aggregates,
		UnitsCount:           units,
	}
	return resp
}
