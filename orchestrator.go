package cotc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/cotcprotocol/gosdk"

	defaultSystemName  = "enterprise_ai_platform"
	defaultCancelGrace = 5 * time.Second
)

var errBackendPanic = errors.New("backend panic")

// orchestratorOption is a function that configures an Orchestrator
type orchestratorOption func(*orchestratorCfg)

// OrchestratorOption configures an Orchestrator. See NewOrchestrator.
type OrchestratorOption = orchestratorOption

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) orchestratorOption {
	return func(c *orchestratorCfg) {
		c.logger = logger
	}
}

// WithDefaultTimeout sets how long Validate waits for a verdict when the call does not set its
// own timeout. Defaults to 300 seconds.
func WithDefaultTimeout(timeout time.Duration) orchestratorOption {
	return func(c *orchestratorCfg) {
		c.defaultTimeout = timeout
	}
}

// WithSystemName sets the originating system recorded on every request.
func WithSystemName(system string) orchestratorOption {
	return func(c *orchestratorCfg) {
		c.system = system
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider. Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) orchestratorOption {
	return func(c *orchestratorCfg) {
		c.tracerProvider = tp
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider. Defaults to the global provider.
func WithMeterProvider(mp metric.MeterProvider) orchestratorOption {
	return func(c *orchestratorCfg) {
		c.meterProvider = mp
	}
}

// WithClock overrides the clock used for request timestamps and durations.
func WithClock(now func() time.Time) orchestratorOption {
	return func(c *orchestratorCfg) {
		c.now = now
	}
}

// WithCancelGrace bounds the best-effort cancellation of validations that timed out.
func WithCancelGrace(grace time.Duration) orchestratorOption {
	return func(c *orchestratorCfg) {
		c.cancelGrace = grace
	}
}

type orchestratorCfg struct {
	logger         *slog.Logger
	defaultTimeout time.Duration
	system         string
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	now            func() time.Time
	newID          func() string
	cancelGrace    time.Duration
}

// validateOption is a function that configures a single Validate call
type validateOption func(*validateCall)

// ValidateOption configures a single Validate call.
type ValidateOption = validateOption

// WithMetadata attaches free-form context to the request. The map is copied.
func WithMetadata(md map[string]any) validateOption {
	return func(c *validateCall) {
		c.metadata = md
	}
}

// WithPriority sets the scheduling priority. Defaults to PriorityMedium.
func WithPriority(p Priority) validateOption {
	return func(c *validateCall) {
		c.priority = p
	}
}

// WithValidationTimeout bounds this call. Non-positive values fall back to the orchestrator's
// default timeout.
func WithValidationTimeout(timeout time.Duration) validateOption {
	return func(c *validateCall) {
		c.timeout = timeout
	}
}

type validateCall struct {
	metadata map[string]any
	priority Priority
	timeout  time.Duration
}

// instruments are created once per Orchestrator.
type instruments struct {
	validations metric.Int64Counter
	duration    metric.Float64Histogram
}

func newInstruments(meter metric.Meter) (*instruments, error) {
	validations, err := meter.Int64Counter(
		"cotc.validations",
		metric.WithDescription("Number of validations by use case, status and error type"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create validations counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"cotc.validation.duration",
		metric.WithDescription("Wall-clock time of Validate calls"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}

	return &instruments{validations: validations, duration: duration}, nil
}

// An Orchestrator turns content into a normalized ValidationResult: it resolves the contract for
// the use case, submits the request to the Backend, waits for the verdict and normalizes it.
//
// Its configuration is fixed at construction; a single Orchestrator may serve any number of
// concurrent Validate calls.
type Orchestrator struct {
	backend     Backend
	registry    *Registry
	config      orchestratorCfg
	tracer      trace.Tracer
	instruments *instruments
}

// NewOrchestrator creates an Orchestrator validating through backend with the contracts of registry.
func NewOrchestrator(backend Backend, registry *Registry, options ...OrchestratorOption) (*Orchestrator, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	if registry == nil {
		return nil, errors.New("registry is required")
	}

	config := orchestratorCfg{
		logger:         slog.Default(),
		defaultTimeout: defaultWaitTimeout,
		system:         defaultSystemName,
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
		now:            time.Now,
		newID:          uuid.NewString,
		cancelGrace:    defaultCancelGrace,
	}
	for _, option := range options {
		option(&config)
	}
	if config.defaultTimeout <= 0 {
		config.defaultTimeout = defaultWaitTimeout
	}
	if config.logger == nil {
		config.logger = slog.Default()
	}
	if config.tracerProvider == nil {
		config.tracerProvider = otel.GetTracerProvider()
	}
	if config.meterProvider == nil {
		config.meterProvider = otel.GetMeterProvider()
	}

	o := &Orchestrator{
		backend:  backend,
		registry: registry,
		config:   config,
		tracer:   config.tracerProvider.Tracer(instrumentationName),
	}

	inst, err := newInstruments(config.meterProvider.Meter(instrumentationName))
	if err != nil {
		// Validation still works without metrics.
		config.logger.Warn("failed to create metric instruments", "error", err)
	} else {
		o.instruments = inst
	}

	for _, useCase := range registry.UseCases() {
		contractID, _ := registry.Resolve(useCase)
		config.logger.Info("loaded contract", "use_case", useCase, "contract_id", contractID)
	}

	return o, nil
}

// Validate validates content against the contract registered for useCase.
//
// Validate never returns an error: every failure, from an unknown use case to a transport error,
// is reported as a ValidationResult with Status set to StatusError and ErrorType describing what
// went wrong. Unknown use cases and malformed requests are rejected before anything is sent to the
// backend.
func (o *Orchestrator) Validate(ctx context.Context, content, useCase string, options ...ValidateOption) (res *ValidationResult) {
	call := validateCall{priority: PriorityMedium}
	for _, option := range options {
		option(&call)
	}
	timeout := call.timeout
	if timeout <= 0 {
		timeout = o.config.defaultTimeout
	}

	start := o.config.now()
	ctx, span := o.tracer.Start(ctx, "cotc.Validate", trace.WithAttributes(
		attribute.String("cotc.use_case", useCase),
		attribute.String("cotc.priority", call.priority.String()),
	))
	defer span.End()

	defer func() {
		o.record(ctx, useCase, res, o.config.now().Sub(start))
	}()

	validationID, res, err := o.validate(ctx, content, useCase, call, timeout)
	if err != nil {
		return o.fail(ctx, span, useCase, validationID, err)
	}

	span.SetAttributes(
		attribute.String("cotc.validation_id", res.ValidationID),
		attribute.String("cotc.status", res.Status.String()),
	)
	span.SetStatus(otelcodes.Ok, "")
	o.config.logger.InfoContext(ctx, "validation completed",
		"validation_id", res.ValidationID,
		"status", res.Status,
		"confidence", res.Confidence,
		"findings", len(res.Findings),
		"duration", o.config.now().Sub(start),
	)
	return res
}

// validate walks a request through resolve, submit, wait and normalize. validationID is returned
// as soon as it is known so that failures after submission can still reference the job. A panicking
// backend is reported as an error, and a job it already accepted is cancelled.
func (o *Orchestrator) validate(
	ctx context.Context,
	content, useCase string,
	call validateCall,
	timeout time.Duration,
) (validationID string, res *ValidationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%w: %v", errBackendPanic, r)
			if validationID != "" {
				o.abandon(ctx, validationID, err)
			}
		}
	}()

	contractID, err := o.registry.Resolve(useCase)
	if err != nil {
		return "", nil, err
	}
	if content == "" {
		return "", nil, ErrEmptyContent
	}
	if !call.priority.IsValid() {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidPriority, call.priority)
	}

	req := &ValidationRequest{
		ID:         o.config.newID(),
		Content:    content,
		ContractID: contractID,
		Metadata:   maps.Clone(call.metadata),
		Priority:   call.priority,
		Requester: Requester{
			System:    o.config.system,
			UseCase:   useCase,
			CreatedAt: o.config.now().UTC(),
		},
	}
	if req.Metadata == nil {
		req.Metadata = map[string]any{}
	}

	o.config.logger.InfoContext(ctx, "submitting validation request",
		"use_case", useCase,
		"contract_id", contractID,
		"priority", req.Priority,
		"request_id", req.ID,
	)

	// The timeout is enforced here regardless of what the backend does with it.
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	validationID, err = o.backend.Submit(waitCtx, req)
	if err != nil {
		return "", nil, o.timeoutOr(waitCtx, ctx, "", timeout, err)
	}
	o.config.logger.InfoContext(ctx, "validation submitted", "validation_id", validationID, "request_id", req.ID)

	raw, err := o.backend.WaitForCompletion(waitCtx, validationID, timeout)
	if err != nil {
		err = o.timeoutOr(waitCtx, ctx, validationID, timeout, err)
		o.abandon(ctx, validationID, err)
		return validationID, nil, err
	}

	res, err = new(ValidationResult).fromRaw(raw)
	if err != nil {
		return validationID, nil, err
	}
	return validationID, res, nil
}

// timeoutOr replaces err with a *TimeoutError when the orchestrator's own deadline expired first.
func (o *Orchestrator) timeoutOr(waitCtx, ctx context.Context, validationID string, timeout time.Duration, err error) error {
	if errors.Is(err, ErrTimeout) {
		return err
	}
	if waitCtx.Err() != nil && !errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%w: %w", &TimeoutError{ValidationID: validationID, Timeout: timeout}, err)
	}
	return err
}

// abandon cancels a submitted validation nobody will wait for anymore, if the backend supports it.
func (o *Orchestrator) abandon(ctx context.Context, validationID string, cause error) {
	canceler, ok := o.backend.(Canceler)
	if !ok {
		return
	}
	if !errors.Is(cause, ErrTimeout) && !errors.Is(cause, context.Canceled) && !errors.Is(cause, errBackendPanic) {
		return
	}

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.config.cancelGrace)
	defer cancel()
	if err := canceler.Cancel(cctx, validationID); err != nil {
		o.config.logger.WarnContext(ctx, "failed to cancel abandoned validation", "validation_id", validationID, "error", err)
	}
}

func (o *Orchestrator) fail(ctx context.Context, span trace.Span, useCase, validationID string, err error) *ValidationResult {
	errType := classifyError(err)
	o.config.logger.ErrorContext(ctx, "validation failed",
		"use_case", useCase,
		"validation_id", validationID,
		"error_type", errType,
		"error", err,
	)
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, errType.String())
	span.SetAttributes(attribute.String("cotc.error_type", errType.String()))
	return newErrorResult(validationID, errType, err)
}

func (o *Orchestrator) record(ctx context.Context, useCase string, res *ValidationResult, elapsed time.Duration) {
	if o.instruments == nil || res == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("use_case", useCase),
		attribute.String("status", res.Status.String()),
		attribute.String("error_type", res.ErrorType.String()),
	)
	o.instruments.validations.Add(ctx, 1, attrs)
	o.instruments.duration.Record(ctx, elapsed.Seconds(), attrs)
}

// GetMetrics returns aggregate statistics over timeRange (empty means TimeRangeDay), optionally
// restricted to some use cases.
//
// A nil result means the metrics are unavailable, never that every figure is zero. Failures are
// logged and not returned because metrics are not on the critical path.
func (o *Orchestrator) GetMetrics(ctx context.Context, timeRange TimeRange, useCases ...string) *Metrics {
	if timeRange == "" {
		timeRange = TimeRangeDay
	}

	ctx, span := o.tracer.Start(ctx, "cotc.GetMetrics", trace.WithAttributes(
		attribute.String("cotc.time_range", string(timeRange)),
		attribute.StringSlice("cotc.use_cases", useCases),
	))
	defer span.End()

	metrics, err := o.getMetrics(ctx, timeRange, useCases)
	if err != nil {
		o.config.logger.ErrorContext(ctx, "metrics retrieval failed", "time_range", timeRange, "error", err)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "metrics unavailable")
		return nil
	}
	return metrics
}

func (o *Orchestrator) getMetrics(ctx context.Context, timeRange TimeRange, useCases []string) (m *Metrics, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("%w: %v", errBackendPanic, r)
		}
	}()

	if !timeRange.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimeRange, timeRange)
	}

	var filter *MetricsFilter
	if len(useCases) > 0 {
		filter = &MetricsFilter{UseCases: useCases}
	}

	raw, err := o.backend.GetMetrics(ctx, timeRange, filter)
	if err != nil {
		return nil, err
	}
	return new(Metrics).fromRaw(raw)
}
