package grpc

import (
	"errors"

	"github.com/dmitrijs2005/interviewkit/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors to gRPC statuses with generic messages.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "invalid credentials")
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrPrincipalNotFound):
		return status.Error(codes.Unauthenticated, "could not validate credentials")
	case errors.Is(err, common.ErrForbidden):
		return status.Error(codes.PermissionDenied, "forbidden")
	case errors.Is(err, common.ErrDuplicateIdentifier):
		return status.Error(codes.AlreadyExists, "user id already exists")
	case errors.Is(err, common.ErrInvalidIdentifier):
		return status.Error(codes.InvalidArgument, "invalid user id")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
