package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	appcatalog "github.com/xiebiao/stocktrack/internal/application/catalog"
	"github.com/xiebiao/stocktrack/internal/application/inventory"
	"github.com/xiebiao/stocktrack/internal/interface/http/dto"
	apperrors "github.com/xiebiao/stocktrack/pkg/errors"
	"github.com/xiebiao/stocktrack/pkg/response"
)

// CatalogHandler 物品/库位HTTP处理器
type CatalogHandler struct {
	createItem     *appcatalog.CreateItemUseCase
	createLocation *appcatalog.CreateLocationUseCase
	query          *appcatalog.QueryUseCase
	listUnits      *inventory.ListUnitsUseCase
	pool           *inventory.PoolUseCase
}

// NewCatalogHandler 创建物品/库位处理器
func NewCatalogHandler(
	createItem *appcatalog.CreateItemUseCase,
	createLocation *appcatalog.CreateLocationUseCase,
	query *appcatalog.QueryUseCase,
	listUnits *inventory.ListUnitsUseCase,
	pool *inventory.PoolUseCase,
) *CatalogHandler {
	return &CatalogHandler{
		createItem:     createItem,
		createLocation: createLocation,
		query:          query,
		listUnits:      listUnits,
		pool:           pool,
	}
}

// bindError 参数绑定失败统一返回40900
func bindError(c *gin.Context, err error) {
	response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
}

// CreateItem 创建物品
// @Summary      创建物品
// @Description  创建物品并生成物品条码(ITM+8位),分类按名称查找或创建
// @Tags         物品
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateItemRequest true "物品信息"
// @Success      200 {object} response.Response{data=appcatalog.ItemResponse}
// @Failure      400 {object} response.Response "参数错误"
// @Router       /items [post]
func (h *CatalogHandler) CreateItem(c *gin.Context) {
	var req dto.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.createItem.Execute(c.Request.Context(), appcatalog.CreateItemRequest{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListItems 物品列表
// @Summary      物品列表
// @Tags         物品
// @Produce      json
// @Param        page      query int    false "页码"
// @Param        page_size query int    false "每页数量(最大100)"
// @Param        q         query string false "名称或条码关键词"
// @Success      200 {object} response.Response{data=appcatalog.ListResponse[appcatalog.ItemResponse]}
// @Router       /items [get]
func (h *CatalogHandler) ListItems(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}
	result, err := h.query.ListItems(c.Request.Context(), req.ListQuery())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetItem 物品详情
// @Summary      物品详情
// @Description  返回物品及其在各库位的库存记录,最早入库在前
// @Tags         物品
// @Produce      json
// @Param        barcode path string true "物品条码"
// @Success      200 {object} response.Response{data=appcatalog.ItemDetailResponse}
// @Failure      404 {object} response.Response "物品不存在"
// @Router       /items/{barcode} [get]
func (h *CatalogHandler) GetItem(c *gin.Context) {
	result, err := h.query.GetItem(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		response.Error(c, err)
		return
	}
	result.Entries = dto.Entries(result.Entries)
	response.Success(c, result)
}

// PoolStats 条码池统计
// @Summary      条码池统计
// @Tags         条码池
// @Produce      json
// @Param        barcode path string true "物品条码"
// @Success      200 {object} response.Response{data=inventory.PoolStatsResponse}
// @Failure      404 {object} response.Response "物品不存在"
// @Router       /items/{barcode}/pool [get]
func (h *CatalogHandler) PoolStats(c *gin.Context) {
	result, err := h.pool.Stats(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// EnsurePool 预热条码池
// @Summary      预热条码池
// @Description  把物品的条码池补足到目标大小(只增不减),请求体可省略
// @Tags         条码池
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        barcode path string true "物品条码"
// @Param        request body dto.EnsurePoolRequest false "目标大小"
// @Success      200 {object} response.Response{data=inventory.EnsurePoolResponse}
// @Router       /items/{barcode}/pool/ensure [post]
func (h *CatalogHandler) EnsurePool(c *gin.Context) {
	var req dto.EnsurePoolRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindError(c, err)
		return
	}

	result, err := h.pool.Ensure(c.Request.Context(), inventory.EnsurePoolRequest{
		ItemBarcode: c.Param("barcode"),
		Target:      req.Target,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// CreateLocation 创建库位
// @Summary      创建库位
// @Tags         库位
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateLocationRequest true "库位信息"
// @Success      200 {object} response.Response{data=appcatalog.LocationResponse}
// @Router       /locations [post]
func (h *CatalogHandler) CreateLocation(c *gin.Context) {
	var req dto.CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.createLocation.Execute(c.Request.Context(), appcatalog.CreateLocationRequest{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListLocations 库位列表
// @Summary      库位列表
// @Tags         库位
// @Produce      json
// @Param        page      query int    false "页码"
// @Param        page_size query int    false "每页数量(最大100)"
// @Param        q         query string false "名称或条码关键词"
// @Success      200 {object} response.Response{data=appcatalog.ListResponse[appcatalog.LocationResponse]}
// @Router       /locations [get]
func (h *CatalogHandler) ListLocations(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}
	result, err := h.query.ListLocations(c.Request.Context(), req.ListQuery())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetLocation 库位详情
// @Summary      库位详情
// @Tags         库位
// @Produce      json
// @Param        barcode path string true "库位条码"
// @Success      200 {object} response.Response{data=appcatalog.LocationDetailResponse}
// @Failure      404 {object} response.Response "库位不存在"
// @Router       /locations/{barcode} [get]
func (h *CatalogHandler) GetLocation(c *gin.Context) {
	result, err := h.query.GetLocation(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		response.Error(c, err)
		return
	}
	result.Entries = dto.Entries(result.Entries)
	response.Success(c, result)
}

// ListUnits 库位内某物品的全部单件
// @Summary      单件列表
// @Tags         库位
// @Produce      json
// @Param        barcode          path string true "库位条码"
// @Param        item_barcode     path string true "物品条码"
// @Success      200 {object} response.Response{data=inventory.ListUnitsResponse}
// @Failure      404 {object} response.Response "该库位没有此物品"
// @Router       /locations/{barcode}/items/{item_barcode}/units [get]
func (h *CatalogHandler) ListUnits(c *gin.Context) {
	result, err := h.listUnits.Execute(c.Request.Context(), inventory.ListUnitsRequest{
		LocationBarcode: c.Param("barcode"),
		ItemBarcode:     c.Param("item_barcode"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.UnitsResponse(result))
}
