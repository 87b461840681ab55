package rpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xiebiao/stocktrack/internal/application/inventory"
	"github.com/xiebiao/stocktrack/internal/domain/catalog"
	"github.com/xiebiao/stocktrack/internal/domain/stock"
	"github.com/xiebiao/stocktrack/internal/infrastructure/messaging"
	"github.com/xiebiao/stocktrack/internal/infrastructure/persistence/memory"
	apperrors "github.com/xiebiao/stocktrack/pkg/errors"
	"github.com/xiebiao/stocktrack/pkg/jwt"
)

// tokenAuth 只认一个固定Token的认证器
type tokenAuth struct{}

func (tokenAuth) Authenticate(_ context.Context, header string) (string, error) {
	switch header {
	case "":
		return "", apperrors.ErrUnauthorized
	case "Bearer good":
		return "scanner-07", nil
	default:
		return "", apperrors.ErrInvalidToken
	}
}

type recorder struct{ actors []string }

func (r *recorder) Publish(_ context.Context, e *messaging.Event) { r.actors = append(r.actors, e.Actor) }

type fixture struct {
	client    *ScannerClient
	health    grpc_health_v1.HealthClient
	catalog   catalog.Service
	events    *recorder
	authedCtx context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	items := memory.NewItemRepository(store)
	barcodes := memory.NewPoolRepository(store)
	opts := stock.Options{TransactionRetries: 1}
	pool := stock.NewPool(barcodes, memory.NewCounterRepository(store), items, store, opts)
	svc := stock.NewService(store, items, memory.NewAggregateRepository(store), memory.NewUnitRepository(store), pool, opts)
	resolver := stock.NewResolver(items, barcodes, pool, nil, store, opts)
	catalogService := catalog.NewService(items, memory.NewLocationRepository(store), memory.NewCategoryRepository(store))
	events := &recorder{}
	settings := inventory.Settings{DefaultPolicy: stock.PolicyLIFO, DefaultPoolSize: 5}

	scanner := NewScanner(
		inventory.NewAddUnitUseCase(catalogService, resolver, svc, events),
		inventory.NewRemoveUnitUseCase(catalogService, resolver, svc, events, settings),
		inventory.NewMoveUnitUseCase(catalogService, svc, events),
		inventory.NewResolveBarcodeUseCase(resolver),
	)
	server, _ := NewServer(scanner, zap.NewNop(), tokenAuth{})

	lis := bufconn.Listen(1024 * 1024)
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &fixture{
		client:    NewScannerClient(conn),
		health:    grpc_health_v1.NewHealthClient(conn),
		catalog:   catalogService,
		events:    events,
		authedCtx: metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer good"),
	}
}

func mustStruct(t *testing.T, fields map[string]interface{}) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return s
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	resp, err := f.health.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)
}

func TestScannerFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item, err := f.catalog.CreateItem(ctx, "Ice cream", "", "")
	require.NoError(t, err)
	fridge, err := f.catalog.CreateLocation(ctx, "Kitchen fridge", "")
	require.NoError(t, err)
	freezer, err := f.catalog.CreateLocation(ctx, "Chest freezer", "")
	require.NoError(t, err)

	// 写方法需要认证
	_, err = f.client.AddUnit(ctx, mustStruct(t, map[string]interface{}{
		"location_barcode": fridge.Barcode,
		"item_barcode":     item.Barcode,
	}))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, apperrors.ErrCodeUnauthorized, ErrorCode(err))

	for i := 0; i < 2; i++ {
		added, err := f.client.AddUnit(f.authedCtx, mustStruct(t, map[string]interface{}{
			"location_barcode": fridge.Barcode,
			"item_barcode":     item.Barcode,
			"added_at":         time.Now().Add(-time.Duration(3-i) * 24 * time.Hour).UTC().Format(time.RFC3339),
		}))
		require.NoError(t, err)
		assert.Equal(t, float64(i+1), added.GetFields()["quantity"].GetNumberValue())
	}

	// 默认策略lifo:取最后入库的那件
	removed, err := f.client.RemoveUnit(f.authedCtx, mustStruct(t, map[string]interface{}{
		"location_barcode": fridge.Barcode,
		"item_barcode":     item.Barcode,
	}))
	require.NoError(t, err)
	assert.Equal(t, item.Barcode+"-00002", removed.GetFields()["unit_barcode"].GetStringValue())
	assert.Equal(t, "lifo", removed.GetFields()["policy"].GetStringValue())
	assert.InDelta(t, 2.0, removed.GetFields()["storage_days"].GetNumberValue(), 0.05)

	moved, err := f.client.MoveUnit(f.authedCtx, mustStruct(t, map[string]interface{}{
		"unit_barcode":        item.Barcode + "-00001",
		"to_location_barcode": freezer.Barcode,
	}))
	require.NoError(t, err)
	assert.True(t, moved.GetFields()["source_cleared"].GetBoolValue())

	// 认证后的设备名成为事件操作者
	require.Len(t, f.events.actors, 4)
	for _, actor := range f.events.actors {
		assert.Equal(t, "scanner-07", actor)
	}

	// 解析不需要认证
	resolved, err := f.client.Resolve(ctx, mustStruct(t, map[string]interface{}{"barcode": item.Barcode + "-00001"}))
	require.NoError(t, err)
	assert.Equal(t, item.Barcode, resolved.GetFields()["item"].GetStructValue().GetFields()["barcode"].GetStringValue())
}

func TestScannerErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item, err := f.catalog.CreateItem(ctx, "Ice cream", "", "")
	require.NoError(t, err)
	fridge, err := f.catalog.CreateLocation(ctx, "Kitchen fridge", "")
	require.NoError(t, err)

	_, err = f.client.Resolve(ctx, mustStruct(t, map[string]interface{}{"barcode": "NOPE"}))
	assert.Equal(t, codes.NotFound, status.Code(err))
	assert.Equal(t, apperrors.ErrCodeUnresolved, ErrorCode(err))

	_, err = f.client.RemoveUnit(f.authedCtx, mustStruct(t, map[string]interface{}{
		"location_barcode": fridge.Barcode,
		"item_barcode":     item.Barcode,
	}))
	assert.Equal(t, codes.NotFound, status.Code(err))
	assert.Equal(t, apperrors.ErrCodeAggregateNotFound, ErrorCode(err))

	_, err = f.client.AddUnit(f.authedCtx, mustStruct(t, map[string]interface{}{
		"location_barcode": fridge.Barcode,
		"item_barcode":     item.Barcode,
		"added_at":         "yesterday",
	}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = f.client.MoveUnit(metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer bad"),
		mustStruct(t, map[string]interface{}{"unit_barcode": "X", "to_location_barcode": fridge.Barcode}))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestToStatus(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
	}{
		{stock.ErrUnitNotFound, codes.NotFound},
		{stock.ErrEmptyAggregate, codes.NotFound},
		{stock.ErrSameLocation, codes.InvalidArgument},
		{apperrors.ErrInvalidParams, codes.InvalidArgument},
		{apperrors.ErrTokenExpired, codes.Unauthenticated},
		{apperrors.ErrTransient, codes.Unavailable},
		{apperrors.ErrConsistency, codes.Internal},
		{errors.New("boom"), codes.Internal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, status.Code(toStatus(tc.err)), tc.err.Error())
	}
	assert.NoError(t, toStatus(nil))

	// 已经是gRPC状态的错误原样返回
	st := status.Error(codes.Canceled, "canceled")
	assert.Equal(t, st, toStatus(st))
	assert.Equal(t, 0, ErrorCode(st))
}

func TestAuthInterceptorSetsDevice(t *testing.T) {
	interceptor := authInterceptor(tokenAuth{})
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer good"))

	var device string
	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: MethodAddUnit}, func(ctx context.Context, _ interface{}) (interface{}, error) {
		device = jwt.DeviceFromContext(ctx)
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "scanner-07", device)

	// Resolve不经过认证
	_, err = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: MethodResolve}, func(ctx context.Context, _ interface{}) (interface{}, error) {
		return nil, nil
	})
	assert.NoError(t, err)
}

// echoScanner 把方法名写进响应
type echoScanner struct{}

func (echoScanner) reply(method string, in *structpb.Struct) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{"method": method, "barcode": in.GetFields()["barcode"].GetStringValue()})
}

func (s echoScanner) AddUnit(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.reply("AddUnit", in)
}

func (s echoScanner) RemoveUnit(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.reply("RemoveUnit", in)
}

func (s echoScanner) MoveUnit(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.reply("MoveUnit", in)
}

func (s echoScanner) Resolve(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.reply("Resolve", in)
}

func TestServiceDescHandlers(t *testing.T) {
	ctx := context.Background()
	req := mustStruct(t, map[string]interface{}{"barcode": "ITMDESC1-00001"})
	dec := func(v interface{}) error {
		v.(*structpb.Struct).Fields = req.GetFields()
		return nil
	}

	for _, desc := range ScannerServiceDesc.Methods {
		t.Run(desc.MethodName, func(t *testing.T) {
			// 无拦截器直接调用
			out, err := desc.Handler(echoScanner{}, ctx, dec, nil)
			require.NoError(t, err)
			fields := out.(*structpb.Struct).GetFields()
			assert.Equal(t, desc.MethodName, fields["method"].GetStringValue())
			assert.Equal(t, "ITMDESC1-00001", fields["barcode"].GetStringValue())

			// 经过拦截器时带上方法全名
			var fullMethod string
			interceptor := func(ctx context.Context, in interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
				fullMethod = info.FullMethod
				return handler(ctx, in)
			}
			_, err = desc.Handler(echoScanner{}, ctx, dec, interceptor)
			require.NoError(t, err)
			assert.Equal(t, "/"+ServiceName+"/"+desc.MethodName, fullMethod)
		})
	}

	// 解码失败直接返回
	_, err := ScannerServiceDesc.Methods[0].Handler(echoScanner{}, ctx, func(interface{}) error { return errors.New("bad frame") }, nil)
	assert.EqualError(t, err, "bad frame")
}
