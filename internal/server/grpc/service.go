package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// The service has no .proto of its own: every request and response is a
// google.protobuf.Struct, so the default proto codec carries it unchanged.
const ServiceName = "interviewkit.auth.AuthService"

// Full method names, as seen by interceptors and clients.
const (
	MethodSignup  = "/" + ServiceName + "/Signup"
	MethodLogin   = "/" + ServiceName + "/Login"
	MethodRefresh = "/" + ServiceName + "/Refresh"
	MethodLogout  = "/" + ServiceName + "/Logout"
	MethodMe      = "/" + ServiceName + "/Me"
	MethodPing    = "/" + ServiceName + "/Ping"
)

type AuthServiceServer interface {
	Signup(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Refresh(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Logout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Me(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(AuthServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryMethod(name string, call unaryCall) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AuthServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(AuthServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("Signup", AuthServiceServer.Signup),
		unaryMethod("Login", AuthServiceServer.Login),
		unaryMethod("Refresh", AuthServiceServer.Refresh),
		unaryMethod("Logout", AuthServiceServer.Logout),
		unaryMethod("Me", AuthServiceServer.Me),
		unaryMethod("Ping", AuthServiceServer.Ping),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "interviewkit/auth.proto",
}

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthServiceDesc, srv)
}
