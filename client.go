package cotc

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/cotcprotocol/gosdk/internal"
	"github.com/cotcprotocol/gosdk/internal/wire"
)

const (
	defaultEndpoint     = "api.cotc-protocol.com:443"
	defaultTimeout      = 30 * time.Second
	defaultWaitTimeout  = 300 * time.Second
	defaultPollInterval = 2 * time.Second
)

// defaultRetryCodes are the gRPC equivalents of HTTP 429, 500, 502, 503 and 504.
var defaultRetryCodes = []codes.Code{codes.ResourceExhausted, codes.Internal, codes.Unavailable}

// RetryConfig configures retry behavior for transient failures
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (0 means no retry)
	MaxRetries uint64
	// InitialInterval is the initial backoff interval
	InitialInterval time.Duration
	// MaxInterval is the maximum backoff interval between retries.
	MaxInterval time.Duration
	// Multiplier is the backoff multiplier (e.g., 2.0 for exponential backoff)
	Multiplier float64
	// RandomizationFactor adds jitter to prevent thundering herd
	RandomizationFactor float64
	// RetryCodes are the status codes worth retrying. Defaults to ResourceExhausted, Internal
	// and Unavailable when empty.
	RetryCodes []codes.Code
}

// DefaultRetryConfig returns our recommended retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:          3,
		InitialInterval:     500 * time.Millisecond,
		MaxInterval:         30 * time.Second,
		Multiplier:          2.0,
		RandomizationFactor: 0.5,
		RetryCodes:          slices.Clone(defaultRetryCodes),
	}
}

// option is a function that configures the client
type option func(*cfg)

// Option configures a Client. See the With* functions.
type Option = option

// WithAPIKey sets the API key for the client.
func WithAPIKey(apiKey string) option {
	return func(c *cfg) {
		c.apiKey = apiKey
	}
}

// WithEndpoint sets the endpoint of the validation service.
func WithEndpoint(endpoint string) option {
	return func(c *cfg) {
		c.endpoint = endpoint
	}
}

// WithInsecure disables TLS. Only meant for local development against a plaintext service.
func WithInsecure(insecure bool) option {
	return func(c *cfg) {
		c.insecure = insecure
	}
}

// WithTimeout sets the timeout applied to each individual RPC. If not set, the default
// timeout is 30 seconds. It does not bound how long WaitForCompletion waits overall.
func WithTimeout(timeout time.Duration) option {
	return func(c *cfg) {
		c.timeout = timeout
	}
}

// WithPollInterval sets how often WaitForCompletion asks the service for the state of a
// validation. If not set, the default is 2 seconds.
func WithPollInterval(interval time.Duration) option {
	return func(c *cfg) {
		c.pollInterval = interval
	}
}

// WithRetryConfig sets custom retry configuration for the client
func WithRetryConfig(retryConfig RetryConfig) option {
	return func(c *cfg) {
		c.retryConfig = retryConfig
	}
}

// WithDisableRetry disables automatic retry of transient failures
func WithDisableRetry() option {
	return func(c *cfg) {
		c.retryConfig.MaxRetries = 0
	}
}

// WithDialOptions appends extra gRPC dial options, e.g. a custom dialer.
func WithDialOptions(opts ...grpc.DialOption) option {
	return func(c *cfg) {
		c.dialOptions = append(c.dialOptions, opts...)
	}
}

// cfg holds configuration for the client
type cfg struct {
	// apiKey is your COTC API key
	apiKey string
	// endpoint is the validation service endpoint
	endpoint string
	// insecure disables TLS (for development only)
	insecure bool
	// timeout bounds every RPC
	timeout time.Duration
	// pollInterval is the delay between two GetValidation calls while waiting
	pollInterval time.Duration
	// retryConfig configures retry behavior for transient failures
	retryConfig RetryConfig
	dialOptions []grpc.DialOption
}

// Client talks to the COTC validation service over gRPC. It implements Backend and Canceler.
type Client struct {
	config *cfg
	conn   *grpc.ClientConn
	stub   internal.ValidationServiceClient
}

var (
	_ Backend  = (*Client)(nil)
	_ Canceler = (*Client)(nil)
)

func commonAuthInterceptor(ctx context.Context, apiKey string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+apiKey)
}

// isRetriableError checks if the error carries one of the retriable status codes
func isRetriableError(err error, retryCodes []codes.Code) bool {
	if err == nil {
		return false
	}

	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	if len(retryCodes) == 0 {
		retryCodes = defaultRetryCodes
	}
	return slices.Contains(retryCodes, st.Code())
}

// createBackoff creates a configured exponential backoff
func createBackoff(config RetryConfig) backoff.BackOff {
	if config.MaxRetries == 0 {
		return &backoff.StopBackOff{}
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = config.InitialInterval
	expBackoff.MaxInterval = config.MaxInterval
	expBackoff.Multiplier = config.Multiplier
	expBackoff.RandomizationFactor = config.RandomizationFactor
	expBackoff.MaxElapsedTime = 0 // We control retries with WithMaxRetries

	return backoff.WithMaxRetries(expBackoff, config.MaxRetries)
}

func unaryInterceptorFactory(apiKey string, retryConfig RetryConfig) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		ctx = commonAuthInterceptor(ctx, apiKey)

		b := createBackoff(retryConfig)

		return backoff.Retry(func() error {
			err := invoker(ctx, method, req, reply, cc, opts...)
			if err != nil && isRetriableError(err, retryConfig.RetryCodes) {
				// Return the error to trigger backoff
				return err
			}
			if err != nil {
				return backoff.Permanent(err)
			}
			return nil
		}, backoff.WithContext(b, ctx))
	}
}

// New creates a new client for the validation service
func New(options ...option) (*Client, error) {
	config := &cfg{
		endpoint:     defaultEndpoint,
		timeout:      defaultTimeout,
		pollInterval: defaultPollInterval,
		insecure:     false,
		retryConfig:  DefaultRetryConfig(),
	}

	for _, option := range options {
		option(config)
	}

	if config.apiKey == "" {
		return nil, ErrAPIKeyRequired
	}

	var creds credentials.TransportCredentials
	if config.insecure {
		creds = insecure.NewCredentials()
	} else {
		creds = credentials.NewTLS(&tls.Config{})
	}

	dialOptions := append([]grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                2 * time.Minute,
			Timeout:             10 * time.Second,
			PermitWithoutStream: false,
		}),
		grpc.WithUnaryInterceptor(unaryInterceptorFactory(config.apiKey, config.retryConfig)),
	}, config.dialOptions...)

	conn, err := grpc.NewClient(config.endpoint, dialOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client for COTC API: %w", err)
	}

	return &Client{
		config: config,
		conn:   conn,
		stub:   internal.NewValidationServiceClient(conn),
	}, nil
}

// Close closes the client connection. You can do this with defer to ensure that the connection
// is always cleaned up.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// call runs one RPC bounded by the per-RPC timeout and translates its error.
func (c *Client) call(ctx context.Context, rpc func(ctx context.Context) error) error {
	if c.config.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.timeout)
		defer cancel()
	}

	err := rpc(ctx)
	if errors.Is(err, internal.ErrMalformedReply) {
		return fmt.Errorf("%w: %w", ErrMalformedResult, err)
	}
	return lookForValidationFailures(err)
}

// Submit sends a validation request to the service and returns the validation id it assigned.
func (c *Client) Submit(ctx context.Context, req *ValidationRequest) (string, error) {
	var resp *wire.SubmitResponse
	err := c.call(ctx, func(ctx context.Context) (err error) {
		resp, err = c.stub.SubmitValidation(ctx, req.toWire())
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to submit validation: %w", err)
	}
	if resp.ValidationID == "" {
		return "", fmt.Errorf("failed to submit validation: %w: missing validation id", ErrMalformedResult)
	}
	return resp.ValidationID, nil
}

// GetValidation fetches the current state of a validation without waiting.
func (c *Client) GetValidation(ctx context.Context, validationID string) (*RawResult, error) {
	var res *wire.Result
	err := c.call(ctx, func(ctx context.Context) (err error) {
		res, err = c.stub.GetValidation(ctx, &wire.ValidationRef{ValidationID: validationID})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get validation %s: %w", validationID, err)
	}
	return res, nil
}

// WaitForCompletion polls the service every poll interval until the validation completes, fails,
// is canceled, or timeout elapses. A state the client does not know is reported as a malformed
// result. A non-positive timeout waits for up to 300 seconds. The caller's context
// deadline also applies; whichever bound is smaller wins.
func (c *Client) WaitForCompletion(ctx context.Context, validationID string, timeout time.Duration) (*RawResult, error) {
	if timeout <= 0 {
		timeout = defaultWaitTimeout
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var result *RawResult
	poll := func() error {
		res, err := c.GetValidation(waitCtx, validationID)
		if err != nil {
			// Transient failures were already retried by the interceptor.
			return backoff.Permanent(err)
		}

		switch res.State {
		case wire.StateCompleted:
			result = res
			return nil
		case wire.StateFailed:
			return backoff.Permanent(&ValidationError{ValidationID: validationID, Message: res.Error})
		case wire.StateCanceled:
			return backoff.Permanent(&ValidationError{ValidationID: validationID, Message: "validation was canceled"})
		case wire.StatePending, wire.StateRunning:
			return ErrValidationPending
		}
		return backoff.Permanent(fmt.Errorf("%w: unknown state %q", ErrMalformedResult, res.State))
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(c.config.pollInterval), waitCtx)
	if err := backoff.Retry(poll, b); err != nil {
		if waitCtx.Err() != nil && !errors.Is(ctx.Err(), context.Canceled) {
			return nil, &TimeoutError{ValidationID: validationID, Timeout: timeout}
		}
		return nil, err
	}
	return result, nil
}

// Cancel asks the service to abort a validation nobody is waiting for anymore.
func (c *Client) Cancel(ctx context.Context, validationID string) error {
	err := c.call(ctx, func(ctx context.Context) error {
		return c.stub.CancelValidation(ctx, &wire.ValidationRef{ValidationID: validationID})
	})
	if err != nil {
		return fmt.Errorf("failed to cancel validation %s: %w", validationID, err)
	}
	return nil
}

// GetMetrics fetches aggregate validation statistics.
func (c *Client) GetMetrics(ctx context.Context, timeRange TimeRange, filter *MetricsFilter) (*RawMetrics, error) {
	if !timeRange.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimeRange, timeRange)
	}

	req := &wire.MetricsRequest{TimeRange: string(timeRange)}
	if filter != nil && len(filter.UseCases) > 0 {
		req.Filters = filter
	}

	var metrics *wire.Metrics
	err := c.call(ctx, func(ctx context.Context) (err error) {
		metrics, err = c.stub.GetMetrics(ctx, req)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics: %w", err)
	}
	return metrics, nil
}
