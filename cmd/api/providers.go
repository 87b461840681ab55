package main

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/xiebiao/stocktrack/internal/application/report"
	"github.com/xiebiao/stocktrack/internal/domain/catalog"
	"github.com/xiebiao/stocktrack/internal/domain/stock"
	"github.com/xiebiao/stocktrack/internal/infrastructure/config"
	"github.com/xiebiao/stocktrack/internal/infrastructure/messaging"
	"github.com/xiebiao/stocktrack/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/stocktrack/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/stocktrack/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/stocktrack/internal/interface/http/middleware"
	"github.com/xiebiao/stocktrack/internal/interface/rpc"
	"github.com/xiebiao/stocktrack/pkg/circuitbreaker"
	"github.com/xiebiao/stocktrack/pkg/jwt"
	"github.com/xiebiao/stocktrack/pkg/mq"
)

// App 组装完成的应用
// GRPC为nil表示grpc.enabled=false
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Engine *gin.Engine
	GRPC   *grpc.Server
}

func provideApp(cfg *config.Config, log *zap.Logger, engine *gin.Engine, grpcServer *grpc.Server) *App {
	return &App{Config: cfg, Logger: log, Engine: engine, GRPC: grpcServer}
}

// Repositories 一组存储实现
// 教学要点：database.driver在运行时才知道，Wire无法按配置挑选Provider，
// 所以由provideRepositories统一构造，再用wire.FieldsOf把字段逐个暴露出去
type Repositories struct {
	Tx         stock.Transactor
	Items      catalog.ItemRepository
	Locations  catalog.LocationRepository
	Categories catalog.CategoryRepository
	Counters   stock.CounterRepository
	Barcodes   stock.PoolRepository
	Aggregates stock.AggregateRepository
	Units      stock.UnitRepository
	Status     report.StatusChecker
}

// provideRepositories 按database.driver创建存储
// mysql: GORM连接池，cleanup关闭连接
// memory: 进程内存储，重启即清空，适合演示与测试
func provideRepositories(cfg *config.Config) (*Repositories, func(), error) {
	switch cfg.Database.Driver {
	case "memory":
		store := memory.NewStore()
		return &Repositories{
			Tx:         store,
			Items:      memory.NewItemRepository(store),
			Locations:  memory.NewLocationRepository(store),
			Categories: memory.NewCategoryRepository(store),
			Counters:   memory.NewCounterRepository(store),
			Barcodes:   memory.NewPoolRepository(store),
			Aggregates: memory.NewAggregateRepository(store),
			Units:      memory.NewUnitRepository(store),
			Status:     store,
		}, func() {}, nil

	case "", "mysql":
		db, err := mysql.NewDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return &Repositories{
			Tx:         mysql.NewTxManager(db),
			Items:      mysql.NewItemRepository(db),
			Locations:  mysql.NewLocationRepository(db),
			Categories: mysql.NewCategoryRepository(db),
			Counters:   mysql.NewCounterRepository(db),
			Barcodes:   mysql.NewPoolRepository(db),
			Aggregates: mysql.NewAggregateRepository(db),
			Units:      mysql.NewUnitRepository(db),
			Status:     mysql.NewStatus(db),
		}, cleanup, nil

	default:
		return nil, nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Database.Driver)
	}
}

// provideRedisClient redis.enabled=false时返回nil客户端
func provideRedisClient(cfg *config.Config) (*goredis.Client, func(), error) {
	if !cfg.Redis.Enabled {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

// provideResolveCache 条码解析缓存
// 注意：必须返回nil接口而不是装着nil指针的接口，否则Resolver会把它当作可用缓存
func provideResolveCache(cfg *config.Config, client *goredis.Client) stock.ResolveCache {
	if client == nil {
		return nil
	}
	return redis.NewResolveCache(client, cfg.Redis.ResolveTTL)
}

// provideDeviceRegistry 设备登记簿，没有Redis时不检查停用状态
func provideDeviceRegistry(client *goredis.Client) middleware.DeviceRegistry {
	if client == nil {
		return nil
	}
	return redis.NewDeviceRegistry(client)
}

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.Auth.Secret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
}

// provideAuthMiddleware auth.enabled=false时返回nil，写接口不做认证
func provideAuthMiddleware(cfg *config.Config, jwtManager *jwt.Manager, registry middleware.DeviceRegistry) *middleware.AuthMiddleware {
	if !cfg.Auth.Enabled {
		return nil
	}
	return middleware.NewAuthMiddleware(jwtManager, registry)
}

// provideEventPublisher 库存事件发布者
// 设计说明：
// 1. mq.enabled=false 使用NoopPublisher
// 2. 启动时连不上RabbitMQ只告警并降级为NoopPublisher，事件本来就是尽力投递
// 3. 熔断器防止Broker故障拖慢每个写请求
func provideEventPublisher(cfg *config.Config, log *zap.Logger) (messaging.EventPublisher, func(), error) {
	if !cfg.MQ.Enabled {
		return messaging.NoopPublisher{}, func() {}, nil
	}

	broker, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, cfg.MQ.ExchangeType, log)
	if err != nil {
		log.Warn("rabbitmq unavailable, inventory events disabled", zap.Error(err))
		return messaging.NoopPublisher{}, func() {}, nil
	}

	breaker := circuitbreaker.NewCircuitBreaker("event-publisher", circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
	})
	return messaging.NewMQPublisher(broker, breaker, log), func() { _ = broker.Close() }, nil
}

func provideStockOptions(cfg *config.Config) stock.Options {
	return stock.Options{TransactionRetries: cfg.Inventory.TransactionRetries}
}

func provideStatusUseCase(checker report.StatusChecker) *report.StatusUseCase {
	return report.NewStatusUseCase(checker, Version)
}

// provideGRPCServer grpc.enabled=false时返回nil
// 与HTTP共用同一个认证中间件，停用设备在两个入口同时失效
func provideGRPCServer(cfg *config.Config, scanner *rpc.Scanner, log *zap.Logger, auth *middleware.AuthMiddleware) *grpc.Server {
	if !cfg.GRPC.Enabled {
		return nil
	}
	var authenticator rpc.Authenticator
	if auth != nil {
		authenticator = auth
	}
	server, _ := rpc.NewServer(scanner, log, authenticator)
	return server
}
