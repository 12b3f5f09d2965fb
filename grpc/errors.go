package minichaingrpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/blockberries/minichain"
)

// toStatus converts a runtime error into a gRPC status error.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var code codes.Code
	switch {
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		switch minichain.CodeOf(err) {
		case minichain.NotFound:
			code = codes.NotFound
		case minichain.InvalidArgument:
			code = codes.InvalidArgument
		case minichain.Unavailable:
			code = codes.Unavailable
		default:
			code = codes.Internal
		}
	}
	return status.Error(code, err.Error())
}

// fromStatus converts a gRPC error back into a *minichain.Error so
// remote callers see the same taxonomy as in-process ones.
func fromStatus(op string, err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return minichain.Wrap(minichain.Internal, op, err)
	}
	var code minichain.Code
	switch st.Code() {
	case codes.NotFound:
		code = minichain.NotFound
	case codes.InvalidArgument:
		code = minichain.InvalidArgument
	case codes.Unavailable, codes.ResourceExhausted, codes.Canceled, codes.DeadlineExceeded:
		code = minichain.Unavailable
	default:
		code = minichain.Internal
	}
	return &minichain.Error{Code: code, Op: op, Msg: st.Message(), Err: err}
}
