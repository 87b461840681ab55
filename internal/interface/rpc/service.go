// Package rpc 扫码终端使用的gRPC接口 inventory.v1.Scanner
//
// 消息统一使用google.protobuf.Struct,字段名与HTTP JSON一致,
// 终端不需要额外的.proto生成代码即可调用(grpcurl同样可用)。
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName gRPC服务全名(健康检查也按这个名字登记)
const ServiceName = "inventory.v1.Scanner"

// 方法全名
const (
	MethodAddUnit    = "/" + ServiceName + "/AddUnit"
	MethodRemoveUnit = "/" + ServiceName + "/RemoveUnit"
	MethodMoveUnit   = "/" + ServiceName + "/MoveUnit"
	MethodResolve    = "/" + ServiceName + "/Resolve"
)

// ScannerServer 服务端接口
type ScannerServer interface {
	AddUnit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveUnit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	MoveUnit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Resolve(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ScannerServiceDesc 服务描述,写法与protoc-gen-go-grpc生成的一致
var ScannerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScannerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AddUnit", Handler: unaryHandler(MethodAddUnit, ScannerServer.AddUnit)},
		{MethodName: "RemoveUnit", Handler: unaryHandler(MethodRemoveUnit, ScannerServer.RemoveUnit)},
		{MethodName: "MoveUnit", Handler: unaryHandler(MethodMoveUnit, ScannerServer.MoveUnit)},
		{MethodName: "Resolve", Handler: unaryHandler(MethodResolve, ScannerServer.Resolve)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "inventory/v1/scanner.proto",
}

// RegisterScannerServer 注册服务
func RegisterScannerServer(s grpc.ServiceRegistrar, srv ScannerServer) {
	s.RegisterService(&ScannerServiceDesc, srv)
}

type unaryMethod func(ScannerServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// grpcHandler 与grpc.MethodDesc.Handler的签名一致(该类型在grpc包内未导出)
type grpcHandler = func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error)

func unaryHandler(fullMethod string, call unaryMethod) grpcHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ScannerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ScannerServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ScannerClient 客户端
type ScannerClient struct {
	cc grpc.ClientConnInterface
}

// NewScannerClient 创建客户端
func NewScannerClient(cc grpc.ClientConnInterface) *ScannerClient {
	return &ScannerClient{cc: cc}
}

func (c *ScannerClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ScannerClient) AddUnit(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodAddUnit, in, opts...)
}

func (c *ScannerClient) RemoveUnit(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodRemoveUnit, in, opts...)
}

func (c *ScannerClient) MoveUnit(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodMoveUnit, in, opts...)
}

func (c *ScannerClient) Resolve(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodResolve, in, opts...)
}
