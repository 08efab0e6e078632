package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/attendance/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors to gRPC status codes. Internal failures
// are logged by the caller and reported without detail.
func toStatus(err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, common.ErrValidation):
		code = codes.InvalidArgument
	case errors.Is(err, common.ErrorNotFound):
		code = codes.NotFound
	case errors.Is(err, common.ErrLocked):
		code = codes.FailedPrecondition
	case errors.Is(err, common.ErrConflictPending):
		code = codes.Aborted
	case errors.Is(err, common.ErrTransient):
		code = codes.Unavailable
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		code = codes.Unauthenticated
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}
