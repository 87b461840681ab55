package handler

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/stocktrack/internal/application/report"
	"github.com/xiebiao/stocktrack/internal/interface/http/dto"
	"github.com/xiebiao/stocktrack/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler 状态与报表HTTP处理器
type ReportHandler struct {
	status *report.StatusUseCase
	aging  *report.AgingReportUseCase
}

// NewReportHandler 创建报表处理器
func NewReportHandler(status *report.StatusUseCase, aging *report.AgingReportUseCase) *ReportHandler {
	return &ReportHandler{status: status, aging: aging}
}

// Status 系统状态
// @Summary      系统状态
// @Description  数据库不可用时仍返回成功响应,database.connected=false
// @Tags         系统
// @Produce      json
// @Success      200 {object} response.Response{data=report.StatusResponse}
// @Router       /status [get]
func (h *ReportHandler) Status(c *gin.Context) {
	response.Success(c, h.status.Execute(c.Request.Context()))
}

// AgingReport 库龄报表
// @Summary      库龄报表
// @Tags         报表
// @Produce      json
// @Param        page      query int false "页码"
// @Param        page_size query int false "每页数量(最大100)"
// @Success      200 {object} response.Response{data=report.AgingReportResponse}
// @Router       /reports/aging [get]
func (h *ReportHandler) AgingReport(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))

	result, err := h.aging.Execute(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.AgingReport(result))
}

// AgingReportXLSX 导出库龄报表
// @Summary      导出库龄报表
// @Tags         报表
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200 {file} file "Excel文件"
// @Router       /reports/aging.xlsx [get]
func (h *ReportHandler) AgingReportXLSX(c *gin.Context) {
	data, err := h.aging.ExportXLSX(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("aging_report_%s.xlsx", time.Now().Format("20060102_150405"))
	response.Attachment(c, filename, xlsxContentType, data)
}
