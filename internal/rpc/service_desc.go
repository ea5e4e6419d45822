package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "shortlink.v1.MappingService"

const (
	createMethod  = "/" + ServiceName + "/Create"
	getMethod     = "/" + ServiceName + "/Get"
	resolveMethod = "/" + ServiceName + "/Resolve"
	deleteMethod  = "/" + ServiceName + "/Delete"
)

// MappingServiceServer is the server API of shortlink.v1.MappingService
type MappingServiceServer interface {
	// Create shortens an URL, returning the existing mapping if there is one
	Create(context.Context, *CreateRequest) (*Mapping, error)
	// Get returns a mapping without counting a hit
	Get(context.Context, *ShortKeyRequest) (*Mapping, error)
	// Resolve counts a hit and returns the updated mapping
	Resolve(context.Context, *ShortKeyRequest) (*Mapping, error)
	// Delete removes a mapping
	Delete(context.Context, *ShortKeyRequest) (*DeleteResponse, error)
}

// RegisterMappingServiceServer registers srv with s
func RegisterMappingServiceServer(s grpc.ServiceRegistrar, srv MappingServiceServer) {
	s.RegisterService(&MappingServiceDesc, srv)
}

func _MappingService_Create_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CreateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MappingServiceServer).Create(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: createMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MappingServiceServer).Create(ctx, req.(*CreateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _MappingService_Get_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ShortKeyRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MappingServiceServer).Get(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: getMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MappingServiceServer).Get(ctx, req.(*ShortKeyRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _MappingService_Resolve_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ShortKeyRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MappingServiceServer).Resolve(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: resolveMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MappingServiceServer).Resolve(ctx, req.(*ShortKeyRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _MappingService_Delete_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ShortKeyRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MappingServiceServer).Delete(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: deleteMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MappingServiceServer).Delete(ctx, req.(*ShortKeyRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// MappingServiceDesc describes shortlink.v1.MappingService for grpc.Server
var MappingServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MappingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Create", Handler: _MappingService_Create_Handler},
		{MethodName: "Get", Handler: _MappingService_Get_Handler},
		{MethodName: "Resolve", Handler: _MappingService_Resolve_Handler},
		{MethodName: "Delete", Handler: _MappingService_Delete_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shortlink/v1/mapping_service",
}
