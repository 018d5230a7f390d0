package internal

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cotcprotocol/gosdk/internal/wire"
)

type validationServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewValidationServiceClient returns a stub calling the validation service over cc.
func NewValidationServiceClient(cc grpc.ClientConnInterface) ValidationServiceClient {
	return &validationServiceClient{cc: cc}
}

// invoke encodes in, performs the unary call and decodes the reply into out. A nil out discards
// the reply.
func (c *validationServiceClient) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	msg, err := wire.Encode(in)
	if err != nil {
		return fmt.Errorf("failed to prepare the request: %w", err)
	}

	reply := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, msg, reply, opts...); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := wire.Decode(reply, out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedReply, err)
	}
	return nil
}

func (c *validationServiceClient) SubmitValidation(ctx context.Context, in *wire.SubmitRequest, opts ...grpc.CallOption) (*wire.SubmitResponse, error) {
	out := new(wire.SubmitResponse)
	if err := c.invoke(ctx, wire.MethodSubmitValidation, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *validationServiceClient) GetValidation(ctx context.Context, in *wire.ValidationRef, opts ...grpc.CallOption) (*wire.Result, error) {
	out := new(wire.Result)
	if err := c.invoke(ctx, wire.MethodGetValidation, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *validationServiceClient) CancelValidation(ctx context.Context, in *wire.ValidationRef, opts ...grpc.CallOption) error {
	return c.invoke(ctx, wire.MethodCancelValidation, in, nil, opts...)
}

func (c *validationServiceClient) GetMetrics(ctx context.Context, in *wire.MetricsRequest, opts ...grpc.CallOption) (*wire.Metrics, error) {
	out := new(wire.Metrics)
	if err := c.invoke(ctx, wire.MethodGetMetrics, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
