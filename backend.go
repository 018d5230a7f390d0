package cotc

import (
	"context"
	"time"
)

// Backend is the remote validation service as seen by the Orchestrator. Client is the production
// implementation; cotctest.Backend is an in-memory double for tests.
type Backend interface {
	// Submit hands a request to the service and returns the validation id it assigned. Fails with
	// a *ValidationError if the service structurally rejects the request.
	Submit(ctx context.Context, req *ValidationRequest) (string, error)

	// WaitForCompletion blocks until the validation completes and returns the raw result. Fails
	// with an error matching ErrTimeout if the validation has not completed within timeout, and
	// with a *ValidationError if the service failed the validation job.
	WaitForCompletion(ctx context.Context, validationID string, timeout time.Duration) (*RawResult, error)

	// GetMetrics returns aggregate statistics for the given time range. filter may be nil.
	GetMetrics(ctx context.Context, timeRange TimeRange, filter *MetricsFilter) (*RawMetrics, error)
}

// Canceler is implemented by backends that can abort a validation the caller has stopped waiting
// for. Backends that do not implement it are expected to clean up abandoned jobs on their own.
type Canceler interface {
	Cancel(ctx context.Context, validationID string) error
}
