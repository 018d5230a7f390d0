package internal

import (
	"context"
	"errors"

	"google.golang.org/grpc"

	"github.com/cotcprotocol/gosdk/internal/wire"
)

// ErrMalformedReply is returned when a reply cannot be decoded into its payload type.
var ErrMalformedReply = errors.New("malformed reply")

// ValidationServiceClient is the client API of the validation service. Errors returned by the
// transport are passed through unchanged so callers can inspect their status.
type ValidationServiceClient interface {
	// SubmitValidation queues content for validation and returns the id the service assigned
	SubmitValidation(ctx context.Context, in *wire.SubmitRequest, opts ...grpc.CallOption) (*wire.SubmitResponse, error)

	// GetValidation returns the current state of a validation
	GetValidation(ctx context.Context, in *wire.ValidationRef, opts ...grpc.CallOption) (*wire.Result, error)

	// CancelValidation aborts a validation
	CancelValidation(ctx context.Context, in *wire.ValidationRef, opts ...grpc.CallOption) error

	// GetMetrics returns aggregate statistics
	GetMetrics(ctx context.Context, in *wire.MetricsRequest, opts ...grpc.CallOption) (*wire.Metrics, error)
}
