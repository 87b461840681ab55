package handler

import (
	"github.com/gin-gonic/gin"

	appcatalog "github.com/xiebiao/stocktrack/internal/application/catalog"
	"github.com/xiebiao/stocktrack/internal/application/inventory"
	"github.com/xiebiao/stocktrack/internal/interface/http/dto"
	"github.com/xiebiao/stocktrack/pkg/response"
)

// InventoryHandler 库存操作HTTP处理器(扫码入库、出库、移库、导入、搜索、条码解析)
type InventoryHandler struct {
	add       *inventory.AddUnitUseCase
	remove    *inventory.RemoveUnitUseCase
	move      *inventory.MoveUnitUseCase
	moveBatch *inventory.MoveBatchUseCase
	importer  *inventory.ImportStockUseCase
	resolve   *inventory.ResolveBarcodeUseCase
	query     *appcatalog.QueryUseCase
}

// NewInventoryHandler 创建库存操作处理器
func NewInventoryHandler(
	add *inventory.AddUnitUseCase,
	remove *inventory.RemoveUnitUseCase,
	move *inventory.MoveUnitUseCase,
	moveBatch *inventory.MoveBatchUseCase,
	importer *inventory.ImportStockUseCase,
	resolve *inventory.ResolveBarcodeUseCase,
	query *appcatalog.QueryUseCase,
) *InventoryHandler {
	return &InventoryHandler{
		add:       add,
		remove:    remove,
		move:      move,
		moveBatch: moveBatch,
		importer:  importer,
		resolve:   resolve,
		query:     query,
	}
}

// AddItem 扫码入库
// @Summary      扫码入库
// @Description  扫描库位条码和物品条码(或单件标签)入库一件,扫到可用的池条码时沿用该条码
// @Tags         库存
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.AddItemRequest true "入库信息"
// @Success      200 {object} response.Response{data=inventory.AddUnitResponse}
// @Failure      401 {object} response.Response "设备未认证"
// @Failure      404 {object} response.Response "库位不存在或条码无法解析"
// @Router       /inventory/add-item [post]
func (h *InventoryHandler) AddItem(c *gin.Context) {
	// 1. 参数绑定与验证
	var req dto.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	// 2. 调用应用层用例
	result, err := h.add.Execute(c.Request.Context(), inventory.AddUnitRequest{
		LocationBarcode: req.LocationBarcode,
		Scanned:         req.ItemBarcode,
		AddedAt:         req.AddedAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RemoveItem 扫码出库
// @Summary      扫码出库
// @Description  按fifo/lifo策略或指定单件条码出库一件,最后一件出库时删除库存记录
// @Tags         库存
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.RemoveItemRequest true "出库信息"
// @Success      200 {object} response.Response{data=inventory.RemoveUnitResponse}
// @Failure      404 {object} response.Response "该库位没有此物品"
// @Router       /inventory/remove-item [post]
func (h *InventoryHandler) RemoveItem(c *gin.Context) {
	var req dto.RemoveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.remove.Execute(c.Request.Context(), inventory.RemoveUnitRequest{
		LocationBarcode: req.LocationBarcode,
		Scanned:         req.ItemBarcode,
		Policy:          req.Policy,
		TargetBarcode:   req.TargetBarcode,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.RemoveItemResponse(result))
}

// Move 移库
// @Summary      移库
// @Description  把单件移到另一个库位,保留原入库时间,优先沿用原条码
// @Tags         库存
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.MoveRequest true "移库信息"
// @Success      200 {object} response.Response{data=inventory.MoveUnitResponse}
// @Failure      400 {object} response.Response "目标库位与来源相同"
// @Failure      404 {object} response.Response "单件不存在"
// @Router       /inventory/move [post]
func (h *InventoryHandler) Move(c *gin.Context) {
	var req dto.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.move.Execute(c.Request.Context(), inventory.MoveUnitRequest{
		UnitBarcode:       req.UnitBarcode,
		ToLocationBarcode: req.ToLocationBarcode,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.MoveResponse(result))
}

// MoveBatch 批量移库
// @Summary      批量移库
// @Description  逐件移库,任一件失败时已移动的单件全部移回原库位
// @Tags         库存
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.MoveBatchRequest true "批量移库信息"
// @Success      200 {object} response.Response{data=inventory.MoveBatchResponse}
// @Failure      400 {object} response.Response "参数错误"
// @Router       /inventory/move-batch [post]
func (h *InventoryHandler) MoveBatch(c *gin.Context) {
	var req dto.MoveBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.moveBatch.Execute(c.Request.Context(), inventory.MoveBatchRequest{
		UnitBarcodes:      req.UnitBarcodes,
		ToLocationBarcode: req.ToLocationBarcode,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.MoveBatchResponse(result))
}

// Import 存量导入
// @Summary      存量导入
// @Description  一次登记多件已有库存,单件入库的物品第一件沿用物品条码
// @Tags         库存
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.ImportRequest true "导入信息"
// @Success      200 {object} response.Response{data=inventory.ImportStockResponse}
// @Router       /inventory/import [post]
func (h *InventoryHandler) Import(c *gin.Context) {
	var req dto.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.importer.Execute(c.Request.Context(), inventory.ImportStockRequest{
		ItemBarcode:     req.ItemBarcode,
		LocationBarcode: req.LocationBarcode,
		Quantity:        req.Quantity,
		AddedAt:         req.AddedAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Search 库存搜索
// @Summary      库存搜索
// @Description  按物品名称、物品条码、库位名称搜索库存记录,最新入库在前
// @Tags         库存
// @Produce      json
// @Param        q         query string false "关键词"
// @Param        page      query int    false "页码"
// @Param        page_size query int    false "每页数量(最大100)"
// @Success      200 {object} response.Response{data=appcatalog.ListResponse[appcatalog.EntryView]}
// @Router       /inventory/search [get]
func (h *InventoryHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.query.SearchInventory(c.Request.Context(), req.ListQuery())
	if err != nil {
		response.Error(c, err)
		return
	}
	result.List = dto.Entries(result.List)
	response.Success(c, result)
}

// Resolve 条码解析
// @Summary      条码解析
// @Description  解析扫码串对应的物品,符合条码格式但尚未登记的会被登记到条码池
// @Tags         条码池
// @Produce      json
// @Param        barcode path string true "扫码串"
// @Success      200 {object} response.Response{data=inventory.ResolveBarcodeResponse}
// @Failure      404 {object} response.Response "条码无法解析"
// @Router       /barcodes/{barcode}/resolve [get]
func (h *InventoryHandler) Resolve(c *gin.Context) {
	result, err := h.resolve.Execute(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
