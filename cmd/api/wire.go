//go:build wireinject
// +build wireinject

// Wire依赖注入配置文件
//
// 教学说明：
// 1. Wire在编译期生成代码，零运行时开销，编译期检测循环依赖
// 2. Provider放在providers.go（普通构建也要用到），本文件只保留Injector
// 3. 修改依赖关系后运行 `wire gen ./cmd/api` 重新生成wire_gen.go
//
// 依赖链：
// *App ← *gin.Engine ← Handler ← UseCase ← 领域服务 ← Repositories ← *config.Config

package main

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	appcatalog "github.com/xiebiao/stocktrack/internal/application/catalog"
	"github.com/xiebiao/stocktrack/internal/application/inventory"
	"github.com/xiebiao/stocktrack/internal/application/report"
	"github.com/xiebiao/stocktrack/internal/domain/catalog"
	"github.com/xiebiao/stocktrack/internal/domain/stock"
	"github.com/xiebiao/stocktrack/internal/infrastructure/config"
	"github.com/xiebiao/stocktrack/internal/interface/http/handler"
	"github.com/xiebiao/stocktrack/internal/interface/http/router"
	"github.com/xiebiao/stocktrack/internal/interface/rpc"
)

// infrastructureSet 存储、缓存、消息
var infrastructureSet = wire.NewSet(
	provideRepositories,
	wire.FieldsOf(new(*Repositories),
		"Tx", "Items", "Locations", "Categories",
		"Counters", "Barcodes", "Aggregates", "Units", "Status"),
	provideRedisClient,
	provideResolveCache,
	provideDeviceRegistry,
	provideEventPublisher,
	config.NewPresentation,
)

// domainSet 领域服务
var domainSet = wire.NewSet(
	provideStockOptions,
	catalog.NewService,
	stock.NewPool,
	stock.NewService,
	stock.NewResolver,
)

// applicationSet 用例
var applicationSet = wire.NewSet(
	inventory.NewSettings,
	appcatalog.NewCreateItemUseCase,
	appcatalog.NewCreateLocationUseCase,
	appcatalog.NewQueryUseCase,
	inventory.NewAddUnitUseCase,
	inventory.NewRemoveUnitUseCase,
	inventory.NewMoveUnitUseCase,
	inventory.NewMoveBatchUseCase,
	inventory.NewImportStockUseCase,
	inventory.NewListUnitsUseCase,
	inventory.NewPoolUseCase,
	inventory.NewResolveBarcodeUseCase,
	report.NewAgingReportUseCase,
	provideStatusUseCase,
)

// interfaceSet HTTP与gRPC入口
var interfaceSet = wire.NewSet(
	provideJWTManager,
	provideAuthMiddleware,
	handler.NewCatalogHandler,
	handler.NewInventoryHandler,
	handler.NewReportHandler,
	router.New,
	rpc.NewScanner,
	provideGRPCServer,
)

// InitializeApp 初始化整个应用
// 返回的cleanup按创建的逆序释放数据库、Redis与RabbitMQ连接
func InitializeApp(cfg *config.Config, log *zap.Logger) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		domainSet,
		applicationSet,
		interfaceSet,
		provideApp,
	)
	return nil, nil, nil
}
