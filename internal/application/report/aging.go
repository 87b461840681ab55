package report

import (
	"context"
	"time"

	"github.com/xiebiao/stocktrack/internal/domain/stock"
	"github.com/xiebiao/stocktrack/internal/infrastructure/config"
)

// AgingRow 库龄报表的一行(一个库存记录)
type AgingRow struct {
	ItemBarcode     string    `json:"item_barcode"`
	ItemName        string    `json:"item_name"`
	LocationBarcode string    `json:"location_barcode"`
	LocationName    string    `json:"location_name"`
	Quantity        int       `json:"quantity"`
	AddedAt         time.Time `json:"added_at"`
	StorageDays     float64   `json:"storage_days"`
	AgingLevel      string    `json:"aging_level"`
	AgingLabel      string    `json:"aging_label"`
}

// AgingReportResponse 库龄报表DTO
type AgingReportResponse struct {
	Rows         []AgingRow `json:"rows"`
	Total        int64      `json:"total"`
	Page         int        `json:"page"`
	PageSize     int        `json:"page_size"`
	WarningDays  int        `json:"warning_days"`
	DangerDays   int        `json:"danger_days"`
	WarningCount int64      `json:"warning_count"` // 超过预警天数的库存记录数(含超期)
	DangerCount  int64      `json:"danger_count"`
	Oldest       *AgingRow  `json:"oldest,omitempty"`
}

// AgingReportUseCase 库龄报表用例
// 设计说明:
// 1. 行按最早入库时间升序,越久的越靠前
// 2. 预警/超期计数按阈值换算成截止时间后在存储层统计,不受分页影响
// 3. 库龄关闭(aging_enabled=false)时等级一律为fresh,计数照常给出
type AgingReportUseCase struct {
	aggregates   stock.AggregateRepository
	presentation config.Presentation
	now          func() time.Time
}

// NewAgingReportUseCase 创建库龄报表用例
func NewAgingReportUseCase(aggregates stock.AggregateRepository, presentation config.Presentation) *AgingReportUseCase {
	return &AgingReportUseCase{
		aggregates:   aggregates,
		presentation: presentation,
		now:          time.Now,
	}
}

// Execute 分页查询库龄报表
func (uc *AgingReportUseCase) Execute(ctx context.Context, page, pageSize int) (*AgingReportResponse, error) {
	p := stock.SearchParams{Page: page, PageSize: pageSize}.Normalize()
	now := uc.now()

	entries, total, err := uc.aggregates.ListByAge(ctx, p.Page, p.PageSize)
	if err != nil {
		return nil, err
	}

	resp := &AgingReportResponse{
		Rows:        uc.rows(entries, now),
		Total:       total,
		Page:        p.Page,
		PageSize:    p.PageSize,
		WarningDays: uc.presentation.AgingWarningDays,
		DangerDays:  uc.presentation.AgingDangerDays,
	}

	if resp.WarningCount, err = uc.aggregates.CountOlderThan(ctx, cutoff(now, uc.presentation.AgingWarningDays)); err != nil {
		return nil, err
	}
	if resp.DangerCount, err = uc.aggregates.CountOlderThan(ctx, cutoff(now, uc.presentation.AgingDangerDays)); err != nil {
		return nil, err
	}

	// 最老的一条:第一页直接取,其余页单独查
	if p.Page == 1 && len(resp.Rows) > 0 {
		oldest := resp.Rows[0]
		resp.Oldest = &oldest
	} else if total > 0 {
		first, _, err := uc.aggregates.ListByAge(ctx, 1, 1)
		if err != nil {
			return nil, err
		}
		if rows := uc.rows(first, now); len(rows) > 0 {
			resp.Oldest = &rows[0]
		}
	}

	return resp, nil
}

// all 翻页取出全部行(导出使用)
func (uc *AgingReportUseCase) all(ctx context.Context) ([]AgingRow, time.Time, error) {
	const batch = 100
	now := uc.now()
	var rows []AgingRow
	for page := 1; ; page++ {
		entries, total, err := uc.aggregates.ListByAge(ctx, page, batch)
		if err != nil {
			return nil, now, err
		}
		rows = append(rows, uc.rows(entries, now)...)
		if len(entries) < batch || int64(len(rows)) >= total {
			return rows, now, nil
		}
	}
}

func (uc *AgingReportUseCase) rows(entries []*stock.Entry, now time.Time) []AgingRow {
	out := make([]AgingRow, len(entries))
	for i, e := range entries {
		days := stock.StorageDays(e.AddedAt, now)
		level := uc.presentation.AgingLevel(days)
		out[i] = AgingRow{
			ItemBarcode:     e.ItemBarcode,
			ItemName:        e.ItemName,
			LocationBarcode: e.LocationBarcode,
			LocationName:    e.LocationName,
			Quantity:        e.Quantity,
			AddedAt:         e.AddedAt,
			StorageDays:     days,
			AgingLevel:      level,
			AgingLabel:      uc.presentation.AgingLabel(level),
		}
	}
	return out
}

func cutoff(now time.Time, days int) time.Time {
	return now.Add(-time.Duration(days) * 24 * time.Hour)
}
