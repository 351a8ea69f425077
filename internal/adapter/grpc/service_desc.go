package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name
const ServiceName = "entrestate.inventory.v1.InventoryRouting"

// Method names of the InventoryRouting service
const (
	MethodGetSummary        = "GetSummary"
	MethodGetCharts         = "GetCharts"
	MethodGetInventory      = "GetInventory"
	MethodListFilterOptions = "ListFilterOptions"
	MethodRecordOverride    = "RecordOverride"
	MethodGetTruthChecks    = "GetTruthChecks"
)

// InventoryRoutingServer is the server API for the InventoryRouting service.
// Every message is a google.protobuf.Struct; field layouts are decoded in this package.
type InventoryRoutingServer interface {
	GetSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCharts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetInventory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListFilterOptions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordOverride(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTruthChecks(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(InventoryRoutingServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryMethod) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(InventoryRoutingServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + ServiceName + "/" + method,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(InventoryRoutingServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// InventoryRoutingServiceDesc is the grpc.ServiceDesc for the InventoryRouting service
var InventoryRoutingServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InventoryRoutingServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodGetSummary, Handler: unaryHandler(MethodGetSummary, InventoryRoutingServer.GetSummary)},
		{MethodName: MethodGetCharts, Handler: unaryHandler(MethodGetCharts, InventoryRoutingServer.GetCharts)},
		{MethodName: MethodGetInventory, Handler: unaryHandler(MethodGetInventory, InventoryRoutingServer.GetInventory)},
		{MethodName: MethodListFilterOptions, Handler: unaryHandler(MethodListFilterOptions, InventoryRoutingServer.ListFilterOptions)},
		{MethodName: MethodRecordOverride, Handler: unaryHandler(MethodRecordOverride, InventoryRoutingServer.RecordOverride)},
		{MethodName: MethodGetTruthChecks, Handler: unaryHandler(MethodGetTruthChecks, InventoryRoutingServer.GetTruthChecks)},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterInventoryRoutingServer registers srv on s
func RegisterInventoryRoutingServer(s grpc.ServiceRegistrar, srv InventoryRoutingServer) {
	s.RegisterService(&InventoryRoutingServiceDesc, srv)
}

// InventoryRoutingClient is the client API for the InventoryRouting service
type InventoryRoutingClient interface {
	GetSummary(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetCharts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetInventory(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListFilterOptions(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	RecordOverride(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetTruthChecks(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type inventoryRoutingClient struct {
	cc grpc.ClientConnInterface
}

// NewInventoryRoutingClient creates a client over cc
func NewInventoryRoutingClient(cc grpc.ClientConnInterface) InventoryRoutingClient {
	return &inventoryRoutingClient{cc: cc}
}

func (c *inventoryRoutingClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *inventoryRoutingClient) GetSummary(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetSummary, in, opts)
}

func (c *inventoryRoutingClient) GetCharts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetCharts, in, opts)
}

func (c *inventoryRoutingClient) GetInventory(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetInventory, in, opts)
}

func (c *inventoryRoutingClient) ListFilterOptions(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodListFilterOptions, in, opts)
}

func (c *inventoryRoutingClient) RecordOverride(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodRecordOverride, in, opts)
}

func (c *inventoryRoutingClient) GetTruthChecks(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetTruthChecks, in, opts)
}
