// Package router 组装Gin引擎:全局中间件、/api/v1业务路由、运维路由
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/xiebiao/stocktrack/internal/infrastructure/config"
	"github.com/xiebiao/stocktrack/internal/interface/http/handler"
	"github.com/xiebiao/stocktrack/internal/interface/http/middleware"
)

// New 创建并配置Gin引擎
// auth为nil表示未启用设备认证(auth.enabled=false),写接口对所有客户端开放
//
// 中间件顺序:
// Recovery → Tracing → Logger(请求ID/请求级Logger) → Metrics → 业务Handler
// 认证只挂在写接口上,读接口始终开放
func New(
	cfg *config.Config,
	log *zap.Logger,
	catalogHandler *handler.CatalogHandler,
	inventoryHandler *handler.InventoryHandler,
	reportHandler *handler.ReportHandler,
	auth *middleware.AuthMiddleware,
) *gin.Engine {
	switch cfg.Server.Mode {
	case gin.ReleaseMode:
		gin.SetMode(gin.ReleaseMode)
	case gin.TestMode:
		gin.SetMode(gin.TestMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Tracing(), middleware.Logger(log))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics())
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// 健康检查(负载均衡探活,不访问数据库)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Swagger文档 http://localhost:8080/swagger/index.html
	if cfg.Server.Mode != gin.ReleaseMode {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// 写接口的认证中间件
	write := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if auth == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{auth.RequireDevice(), h}
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/status", reportHandler.Status)

		items := v1.Group("/items")
		{
			items.POST("", write(catalogHandler.CreateItem)...)
			items.GET("", catalogHandler.ListItems)
			items.GET("/:barcode", catalogHandler.GetItem)
			items.GET("/:barcode/pool", catalogHandler.PoolStats)
			items.POST("/:barcode/pool/ensure", write(catalogHandler.EnsurePool)...)
		}

		// gin要求同一位置的路径参数同名,单件列表的库位参数沿用:barcode
		locations := v1.Group("/locations")
		{
			locations.POST("", write(catalogHandler.CreateLocation)...)
			locations.GET("", catalogHandler.ListLocations)
			locations.GET("/:barcode", catalogHandler.GetLocation)
			locations.GET("/:barcode/items/:item_barcode/units", catalogHandler.ListUnits)
		}

		inv := v1.Group("/inventory")
		{
			inv.POST("/add-item", write(inventoryHandler.AddItem)...)
			inv.POST("/remove-item", write(inventoryHandler.RemoveItem)...)
			inv.POST("/move", write(inventoryHandler.Move)...)
			inv.POST("/move-batch", write(inventoryHandler.MoveBatch)...)
			inv.POST("/import", write(inventoryHandler.Import)...)
			inv.GET("/search", inventoryHandler.Search)
		}

		v1.GET("/barcodes/:barcode/resolve", inventoryHandler.Resolve)

		reports := v1.Group("/reports")
		{
			reports.GET("/aging", reportHandler.AgingReport)
			reports.GET("/aging.xlsx", reportHandler.AgingReportXLSX)
		}
	}

	return r
}
