package rpc

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/xiebiao/stocktrack/pkg/errors"
	"github.com/xiebiao/stocktrack/pkg/jwt"
	"github.com/xiebiao/stocktrack/pkg/logger"
	"github.com/xiebiao/stocktrack/pkg/metrics"
)

// Authenticator 校验authorization元数据并返回设备名
// middleware.AuthMiddleware实现了它,HTTP与gRPC共用同一套校验
type Authenticator interface {
	Authenticate(ctx context.Context, authHeader string) (string, error)
}

// 需要设备认证的写方法;Resolve与HTTP的解析接口一样对外开放
var writeMethods = map[string]bool{
	MethodAddUnit:    true,
	MethodRemoveUnit: true,
	MethodMoveUnit:   true,
}

// NewServer 创建gRPC服务器并注册扫码服务和标准健康检查
// auth为nil表示未启用设备认证
//
// 拦截器顺序: recovery → logging(请求ID/请求级Logger/指标) → auth
func NewServer(scanner ScannerServer, log *zap.Logger, auth Authenticator) (*grpc.Server, *health.Server) {
	interceptors := []grpc.UnaryServerInterceptor{
		recoveryInterceptor(log),
		loggingInterceptor(log),
	}
	if auth != nil {
		interceptors = append(interceptors, authInterceptor(auth))
	}

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(interceptors...),
		grpc.MaxRecvMsgSize(4*1024*1024),
	)
	RegisterScannerServer(server, scanner)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(server, healthServer)

	return server, healthServer
}

// toStatus 业务错误码映射为gRPC状态
// 原始错误码放在details里(Struct{"code": 40403}),终端据此给出提示
//
// 404xx → NotFound
// 400xx/409xx → InvalidArgument
// 401xx → Unauthenticated
// 50003 → Unavailable(可重试)
// 其余 → Internal
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	appErr := apperrors.GetAppError(err)
	var code codes.Code
	switch {
	case appErr.Family() == 404:
		code = codes.NotFound
	case appErr.Family() == 400 || appErr.Family() == 409:
		code = codes.InvalidArgument
	case appErr.Family() == 401:
		code = codes.Unauthenticated
	case appErr.Code == apperrors.ErrCodeTransient:
		code = codes.Unavailable
	default:
		code = codes.Internal
	}

	st := status.New(code, appErr.Message)
	detail, derr := structpb.NewStruct(map[string]interface{}{"code": appErr.Code})
	if derr == nil {
		if withDetail, werr := st.WithDetails(detail); werr == nil {
			st = withDetail
		}
	}
	return st.Err()
}

// ErrorCode 从gRPC错误中取回业务错误码,没有时返回0
func ErrorCode(err error) int {
	st, ok := status.FromError(err)
	if !ok {
		return 0
	}
	for _, d := range st.Details() {
		if s, ok := d.(*structpb.Struct); ok {
			return int(s.GetFields()["code"].GetNumberValue())
		}
	}
	return 0
}

func recoveryInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("grpc panic",
					zap.String("method", info.FullMethod),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()))
				err = status.Error(codes.Internal, fmt.Sprintf("内部错误: %v", r))
			}
		}()
		return handler(ctx, req)
	}
}

func loggingInterceptor(base *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		requestID := firstMetadata(ctx, "x-request-id")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx = logger.WithContext(ctx, base.With(zap.String("request_id", requestID)))

		start := time.Now()
		resp, err := handler(ctx, req)
		latency := time.Since(start)

		code := status.Code(err)
		metrics.IncCounterVec(metrics.HTTPRequestsTotal, map[string]string{
			"method": "GRPC",
			"path":   info.FullMethod,
			"status": code.String(),
		})
		metrics.ObserveHistogramVec(metrics.HTTPRequestDuration, map[string]string{
			"method": "GRPC",
			"path":   info.FullMethod,
		}, latency.Seconds())

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("latency", latency),
		}
		if err != nil && code == codes.Internal {
			logger.FromContext(ctx).Error("grpc request", append(fields, zap.Error(err))...)
		} else {
			logger.FromContext(ctx).Info("grpc request", fields...)
		}
		return resp, err
	}
}

func authInterceptor(auth Authenticator) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if !writeMethods[info.FullMethod] {
			return handler(ctx, req)
		}
		device, err := auth.Authenticate(ctx, firstMetadata(ctx, "authorization"))
		if err != nil {
			return nil, toStatus(err)
		}
		ctx = jwt.WithDevice(ctx, device)
		ctx = logger.WithContext(ctx, logger.FromContext(ctx).With(zap.String("device", device)))
		return handler(ctx, req)
	}
}

func firstMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}
