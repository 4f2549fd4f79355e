package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "ugody.v1.PipelineService"

const (
	MethodScan          = "/" + ServiceName + "/Scan"
	MethodEnqueue       = "/" + ServiceName + "/Enqueue"
	MethodGetResult     = "/" + ServiceName + "/GetResult"
	MethodListDocuments = "/" + ServiceName + "/ListDocuments"
	MethodGetDocument   = "/" + ServiceName + "/GetDocument"
	MethodGetContent    = "/" + ServiceName + "/GetContent"
	MethodGetStats      = "/" + ServiceName + "/GetStats"
)

// PipelineServer is the server API for ugody.v1.PipelineService.
// Requests and responses are google.protobuf.Struct.
type PipelineServer interface {
	Scan(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Enqueue(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetResult(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListDocuments(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetContent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetStats(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var PipelineServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PipelineServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Scan", Handler: unaryHandler(MethodScan, PipelineServer.Scan)},
		{MethodName: "Enqueue", Handler: unaryHandler(MethodEnqueue, PipelineServer.Enqueue)},
		{MethodName: "GetResult", Handler: unaryHandler(MethodGetResult, PipelineServer.GetResult)},
		{MethodName: "ListDocuments", Handler: unaryHandler(MethodListDocuments, PipelineServer.ListDocuments)},
		{MethodName: "GetDocument", Handler: unaryHandler(MethodGetDocument, PipelineServer.GetDocument)},
		{MethodName: "GetContent", Handler: unaryHandler(MethodGetContent, PipelineServer.GetContent)},
		{MethodName: "GetStats", Handler: unaryHandler(MethodGetStats, PipelineServer.GetStats)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ugody/v1/pipeline.proto",
}

func RegisterPipelineServer(s grpc.ServiceRegistrar, srv PipelineServer) {
	s.RegisterService(&PipelineServiceDesc, srv)
}

type unaryCall func(PipelineServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PipelineServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(PipelineServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// PipelineClient is the client API for ugody.v1.PipelineService.
type PipelineClient struct {
	cc grpc.ClientConnInterface
}

func NewPipelineClient(cc grpc.ClientConnInterface) *PipelineClient {
	return &PipelineClient{cc: cc}
}

func (c *PipelineClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PipelineClient) Scan(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodScan, in, opts...)
}

func (c *PipelineClient) Enqueue(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodEnqueue, in, opts...)
}

func (c *PipelineClient) GetResult(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetResult, in, opts...)
}

func (c *PipelineClient) ListDocuments(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodListDocuments, in, opts...)
}

func (c *PipelineClient) GetDocument(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetDocument, in, opts...)
}

func (c *PipelineClient) GetContent(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetContent, in, opts...)
}

func (c *PipelineClient) GetStats(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetStats, in, opts...)
}
