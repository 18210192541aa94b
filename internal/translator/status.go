package translator

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// statusFromError converts an adapter error into the status delivered through
// the callback. Errors created with the grpc status package keep their code;
// context cancellation and deadline map to their canonical codes; anything
// else becomes Internal. Adapter errors never escape the dispatch strategy
// uncaught.
func statusFromError(err error) *status.Status {
	if err == nil {
		return nil
	}
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		return st
	}
	if errors.Is(err, context.Canceled) {
		return status.New(codes.Canceled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.New(codes.DeadlineExceeded, err.Error())
	}
	return status.New(codes.Internal, err.Error())
}
