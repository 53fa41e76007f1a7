// Package grpcwriter exposes metadata writing over gRPC.
//
// Messages travel as google.protobuf.Struct so the service needs no
// generated stubs; the typed request and response structs in this package
// convert to and from them.
package grpcwriter

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "audiometa.v1.MetadataWriterAPI"

const (
	methodCreateForInference = "CreateForInference"
	methodGetMetadata        = "GetMetadata"
	methodListMetadata       = "ListMetadata"
	methodDeleteMetadata     = "DeleteMetadata"
)

// MetadataWriterAPIServer is the server side of the metadata writer service.
type MetadataWriterAPIServer interface {
	CreateForInference(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMetadata(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListMetadata(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteMetadata(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(MetadataWriterAPIServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MetadataWriterAPIServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(MetadataWriterAPIServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func fullMethod(method string) string {
	return "/" + serviceName + "/" + method
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*MetadataWriterAPIServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: methodCreateForInference, Handler: unaryHandler(methodCreateForInference, MetadataWriterAPIServer.CreateForInference)},
		{MethodName: methodGetMetadata, Handler: unaryHandler(methodGetMetadata, MetadataWriterAPIServer.GetMetadata)},
		{MethodName: methodListMetadata, Handler: unaryHandler(methodListMetadata, MetadataWriterAPIServer.ListMetadata)},
		{MethodName: methodDeleteMetadata, Handler: unaryHandler(methodDeleteMetadata, MetadataWriterAPIServer.DeleteMetadata)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "audiometa/v1/writer",
}

// RegisterMetadataWriterAPIServer registers srv on s.
func RegisterMetadataWriterAPIServer(s grpc.ServiceRegistrar, srv MetadataWriterAPIServer) {
	s.RegisterService(&serviceDesc, srv)
}
