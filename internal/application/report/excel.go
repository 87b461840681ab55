package report

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"
)

const agingSheet = "Aging"

// agingHeader 导出表头
var agingHeader = []string{
	"Item Barcode",
	"Item Name",
	"Location Barcode",
	"Location Name",
	"Quantity",
	"Added At",
	"Storage Days",
	"Aging",
}

var agingColumnWidths = []float64{18, 30, 18, 25, 10, 20, 14, 15}

// ExportXLSX 导出全部库龄报表行为Excel文件
func (uc *AgingReportUseCase) ExportXLSX(ctx context.Context) ([]byte, error) {
	rows, _, err := uc.all(ctx)
	if err != nil {
		return nil, err
	}
	return generateAgingExcel(rows)
}

func generateAgingExcel(rows []AgingRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(agingSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	// 删除默认的 Sheet1
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	// 写入表头
	for col, header := range agingHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(agingSheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(agingSheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(agingSheet, name, name, agingColumnWidths[col]); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	// 写入数据，从第2行开始
	for i, r := range rows {
		values := []any{
			r.ItemBarcode,
			r.ItemName,
			r.LocationBarcode,
			r.LocationName,
			r.Quantity,
			r.AddedAt.Format("2006-01-02 15:04:05"),
			math.Round(r.StorageDays*10) / 10,
			r.AgingLabel,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(agingSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write excel: %w", err)
	}
	return buf.Bytes(), nil
}
