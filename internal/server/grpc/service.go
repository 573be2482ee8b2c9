package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	TokenServiceName  = "authkeeper.session.v1.TokenService"
	VerifyTokenMethod = "/" + TokenServiceName + "/VerifyToken"
)

// TokenServiceServer verifies session tokens for sibling services. The token
// travels in, and the bound user id comes back, as a StringValue.
type TokenServiceServer interface {
	VerifyToken(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
}

var TokenServiceDesc = grpc.ServiceDesc{
	ServiceName: TokenServiceName,
	HandlerType: (*TokenServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "VerifyToken",
			Handler:    verifyTokenHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "authkeeper/session/v1/token.proto",
}

func RegisterTokenServiceServer(s grpc.ServiceRegistrar, srv TokenServiceServer) {
	s.RegisterService(&TokenServiceDesc, srv)
}

func verifyTokenHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TokenServiceServer).VerifyToken(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: VerifyTokenMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TokenServiceServer).VerifyToken(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}
