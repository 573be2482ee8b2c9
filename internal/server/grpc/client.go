package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// NewClient opens a plaintext connection to a token service.
func NewClient(address string) (*grpc.ClientConn, error) {
	return grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// VerifyToken asks the token service which user token belongs to. Errors are
// gRPC status errors: Unauthenticated or InvalidArgument.
func VerifyToken(ctx context.Context, conn grpc.ClientConnInterface, token string) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := conn.Invoke(ctx, VerifyTokenMethod, wrapperspb.String(token), out); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}
