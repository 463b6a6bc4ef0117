package inventory

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The inventory service is described with well-known protobuf types, so no
// generated code is needed on either side.
const (
	ServiceName = "ecommerce.inventory.v1.Inventory"

	getStockMethod = "/" + ServiceName + "/GetStock"
	reserveMethod  = "/" + ServiceName + "/Reserve"
	releaseMethod  = "/" + ServiceName + "/Release"
)

type InventoryServer interface {
	GetStock(ctx context.Context, productID *wrapperspb.StringValue) (*wrapperspb.Int64Value, error)
	// Reserve and Release take {"productId": string, "quantity": number}.
	Reserve(ctx context.Context, line *structpb.Struct) (*emptypb.Empty, error)
	Release(ctx context.Context, line *structpb.Struct) (*emptypb.Empty, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InventoryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetStock", Handler: getStockHandler},
		{MethodName: "Reserve", Handler: reserveHandler},
		{MethodName: "Release", Handler: releaseHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ecommerce/inventory/v1/inventory.proto",
}

func RegisterInventoryServer(registrar grpc.ServiceRegistrar, srv InventoryServer) {
	registrar.RegisterService(&serviceDesc, srv)
}

func getStockHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InventoryServer).GetStock(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getStockMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(InventoryServer).GetStock(ctx, req.(*wrapperspb.StringValue))
	})
}

func reserveHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InventoryServer).Reserve(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: reserveMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(InventoryServer).Reserve(ctx, req.(*structpb.Struct))
	})
}

func releaseHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InventoryServer).Release(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: releaseMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(InventoryServer).Release(ctx, req.(*structpb.Struct))
	})
}

// Client calls the inventory service over an established connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) GetStock(ctx context.Context, productID string, opts ...grpc.CallOption) (int64, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, getStockMethod, wrapperspb.String(productID), out, opts...); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

func (c *Client) Reserve(ctx context.Context, productID string, quantity int, opts ...grpc.CallOption) error {
	return c.invokeLine(ctx, reserveMethod, productID, quantity, opts...)
}

func (c *Client) Release(ctx context.Context, productID string, quantity int, opts ...grpc.CallOption) error {
	return c.invokeLine(ctx, releaseMethod, productID, quantity, opts...)
}

func (c *Client) invokeLine(ctx context.Context, method, productID string, quantity int, opts ...grpc.CallOption) error {
	line := &structpb.Struct{Fields: map[string]*structpb.Value{
		"productId": structpb.NewStringValue(productID),
		"quantity":  structpb.NewNumberValue(float64(quantity)),
	}}
	return c.cc.Invoke(ctx, method, line, new(emptypb.Empty), opts...)
}
