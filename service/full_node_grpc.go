// Package service holds the wire contract of the full node: request and
// response messages, the FullNodeService client and server bindings, and the
// json codec they are exchanged with.
package service

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

const serviceName = "apecoin.FullNodeService"

const (
	FullNodeService_SetTransaction_FullMethodName = "/" + serviceName + "/SetTransaction"
	FullNodeService_SetBlock_FullMethodName       = "/" + serviceName + "/SetBlock"
	FullNodeService_AddPeer_FullMethodName        = "/" + serviceName + "/AddPeer"
	FullNodeService_GetBalance_FullMethodName     = "/" + serviceName + "/GetBalance"
	FullNodeService_StartMining_FullMethodName    = "/" + serviceName + "/StartMining"
	FullNodeService_StopMining_FullMethodName     = "/" + serviceName + "/StopMining"
	FullNodeService_GetStatus_FullMethodName      = "/" + serviceName + "/GetStatus"
)

type FullNodeServiceClient interface {
	SetTransaction(ctx context.Context, in *SetTransactionRequest, opts ...grpc.CallOption) (*SetTransactionResponse, error)
	SetBlock(ctx context.Context, in *SetBlockRequest, opts ...grpc.CallOption) (*SetBlockResponse, error)
	AddPeer(ctx context.Context, in *AddPeerRequest, opts ...grpc.CallOption) (*AddPeerResponse, error)
	GetBalance(ctx context.Context, in *GetBalanceRequest, opts ...grpc.CallOption) (*GetBalanceResponse, error)
	StartMining(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*StartMiningResponse, error)
	StopMining(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error)
	GetStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*GetStatusResponse, error)
}

type fullNodeServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewFullNodeServiceClient(cc grpc.ClientConnInterface) FullNodeServiceClient {
	return &fullNodeServiceClient{cc}
}

func (c *fullNodeServiceClient) invoke(ctx context.Context, method string, in, out interface{}, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{CallOption()}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *fullNodeServiceClient) SetTransaction(ctx context.Context, in *SetTransactionRequest, opts ...grpc.CallOption) (*SetTransactionResponse, error) {
	out := new(SetTransactionResponse)
	if err := c.invoke(ctx, FullNodeService_SetTransaction_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fullNodeServiceClient) SetBlock(ctx context.Context, in *SetBlockRequest, opts ...grpc.CallOption) (*SetBlockResponse, error) {
	out := new(SetBlockResponse)
	if err := c.invoke(ctx, FullNodeService_SetBlock_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fullNodeServiceClient) AddPeer(ctx context.Context, in *AddPeerRequest, opts ...grpc.CallOption) (*AddPeerResponse, error) {
	out := new(AddPeerResponse)
	if err := c.invoke(ctx, FullNodeService_AddPeer_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fullNodeServiceClient) GetBalance(ctx context.Context, in *GetBalanceRequest, opts ...grpc.CallOption) (*GetBalanceResponse, error) {
	out := new(GetBalanceResponse)
	if err := c.invoke(ctx, FullNodeService_GetBalance_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fullNodeServiceClient) StartMining(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*StartMiningResponse, error) {
	out := new(StartMiningResponse)
	if err := c.invoke(ctx, FullNodeService_StartMining_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fullNodeServiceClient) StopMining(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.invoke(ctx, FullNodeService_StopMining_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fullNodeServiceClient) GetStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*GetStatusResponse, error) {
	out := new(GetStatusResponse)
	if err := c.invoke(ctx, FullNodeService_GetStatus_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// FullNodeServiceServer is implemented by full_node.FullNodeServer. Embed
// UnimplementedFullNodeServiceServer to stay forward compatible.
type FullNodeServiceServer interface {
	SetTransaction(context.Context, *SetTransactionRequest) (*SetTransactionResponse, error)
	SetBlock(context.Context, *SetBlockRequest) (*SetBlockResponse, error)
	AddPeer(context.Context, *AddPeerRequest) (*AddPeerResponse, error)
	GetBalance(context.Context, *GetBalanceRequest) (*GetBalanceResponse, error)
	StartMining(context.Context, *emptypb.Empty) (*StartMiningResponse, error)
	StopMining(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	GetStatus(context.Context, *emptypb.Empty) (*GetStatusResponse, error)
	mustEmbedUnimplementedFullNodeServiceServer()
}

type UnimplementedFullNodeServiceServer struct{}

func (UnimplementedFullNodeServiceServer) SetTransaction(context.Context, *SetTransactionRequest) (*SetTransactionResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SetTransaction not implemented")
}
func (UnimplementedFullNodeServiceServer) SetBlock(context.Context, *SetBlockRequest) (*SetBlockResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SetBlock not implemented")
}
func (UnimplementedFullNodeServiceServer) AddPeer(context.Context, *AddPeerRequest) (*AddPeerResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method AddPeer not implemented")
}
func (UnimplementedFullNodeServiceServer) GetBalance(context.Context, *GetBalanceRequest) (*GetBalanceResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetBalance not implemented")
}
func (UnimplementedFullNodeServiceServer) StartMining(context.Context, *emptypb.Empty) (*StartMiningResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method StartMining not implemented")
}
func (UnimplementedFullNodeServiceServer) StopMining(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return nil, status.Errorf(codes.Unimplemented, "method StopMining not implemented")
}
func (UnimplementedFullNodeServiceServer) GetStatus(context.Context, *emptypb.Empty) (*GetStatusResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetStatus not implemented")
}
func (UnimplementedFullNodeServiceServer) mustEmbedUnimplementedFullNodeServiceServer() {}

func RegisterFullNodeServiceServer(s grpc.ServiceRegistrar, srv FullNodeServiceServer) {
	s.RegisterService(&FullNodeService_ServiceDesc, srv)
}

// unaryHandler adapts one typed server method to grpc's method handler.
func unaryHandler[Req any, Resp any](method string, call func(FullNodeServiceServer, context.Context, *Req) (*Resp, error)) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(FullNodeServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: method,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(FullNodeServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var FullNodeService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*FullNodeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SetTransaction",
			Handler:    unaryHandler(FullNodeService_SetTransaction_FullMethodName, FullNodeServiceServer.SetTransaction),
		},
		{
			MethodName: "SetBlock",
			Handler:    unaryHandler(FullNodeService_SetBlock_FullMethodName, FullNodeServiceServer.SetBlock),
		},
		{
			MethodName: "AddPeer",
			Handler:    unaryHandler(FullNodeService_AddPeer_FullMethodName, FullNodeServiceServer.AddPeer),
		},
		{
			MethodName: "GetBalance",
			Handler:    unaryHandler(FullNodeService_GetBalance_FullMethodName, FullNodeServiceServer.GetBalance),
		},
		{
			MethodName: "StartMining",
			Handler:    unaryHandler(FullNodeService_StartMining_FullMethodName, FullNodeServiceServer.StartMining),
		},
		{
			MethodName: "StopMining",
			Handler:    unaryHandler(FullNodeService_StopMining_FullMethodName, FullNodeServiceServer.StopMining),
		},
		{
			MethodName: "GetStatus",
			Handler:    unaryHandler(FullNodeService_GetStatus_FullMethodName, FullNodeServiceServer.GetStatus),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "full_node.proto",
}
