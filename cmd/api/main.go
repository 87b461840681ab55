package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/xiebiao/stocktrack/docs"
	"github.com/xiebiao/stocktrack/internal/infrastructure/config"
	"github.com/xiebiao/stocktrack/pkg/logger"
	"github.com/xiebiao/stocktrack/pkg/metrics"
	"github.com/xiebiao/stocktrack/pkg/tracing"
)

// Version 构建版本，发布时通过 -ldflags "-X main.Version=v1.2.0" 注入
var Version = "dev"

// @title           StockTrack API
// @version         1.0
// @description     扫码枪驱动的实物库存追踪服务：入库、出库(FIFO/LIFO/指定单件)、移库、条码解析
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description 设备Token，格式: Bearer <token>

// main 主程序入口
//
// 启动流程：
// 1. 加载配置并初始化日志、指标、链路追踪
// 2. Wire组装依赖（存储按database.driver选择）
// 3. 启动HTTP服务，grpc.enabled时同时启动gRPC服务
// 4. 收到SIGINT/SIGTERM后优雅关闭：先停止接收新请求，再释放连接
func main() {
	// 步骤1：加载配置
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 步骤2：日志
	zapLogger, err := logger.New(logger.Config{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
		ServiceName:  cfg.Tracing.ServiceName,
	})
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	zap.ReplaceGlobals(zapLogger)

	// 步骤3：指标与链路追踪
	if cfg.Metrics.Enabled {
		metrics.InitMetrics()
	}
	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
		if err != nil {
			zapLogger.Warn("tracing disabled", zap.Error(err))
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdown(ctx)
			}()
		}
	}

	// 步骤4：依赖注入
	app, cleanup, err := InitializeApp(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("初始化应用失败", zap.Error(err))
	}
	defer cleanup()

	// 步骤5：启动HTTP服务
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      app.Engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		zapLogger.Info("http server started",
			zap.String("addr", httpServer.Addr),
			zap.String("driver", cfg.Database.Driver),
			zap.String("version", Version))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("HTTP服务启动失败", zap.Error(err))
		}
	}()

	// 步骤6：启动gRPC服务
	if app.GRPC != nil {
		listener, err := net.Listen("tcp", cfg.GRPC.Addr())
		if err != nil {
			zapLogger.Fatal("监听gRPC端口失败", zap.Error(err))
		}
		go func() {
			zapLogger.Info("grpc server started", zap.String("addr", cfg.GRPC.Addr()))
			if err := app.GRPC.Serve(listener); err != nil {
				zapLogger.Error("gRPC服务异常退出", zap.Error(err))
			}
		}()
	}

	// 步骤7：优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		zapLogger.Error("HTTP服务关闭超时", zap.Error(err))
	}
	if app.GRPC != nil {
		app.GRPC.GracefulStop()
	}

	zapLogger.Info("server exited")
}

// loadConfig STOCKTRACK_CONFIG指定配置文件时优先使用，否则按默认路径查找
func loadConfig() (*config.Config, error) {
	if path := os.Getenv("STOCKTRACK_CONFIG"); path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
