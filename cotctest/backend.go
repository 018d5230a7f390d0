// Package cotctest provides an in-memory cotc.Backend for tests.
//
//	backend := cotctest.NewBackend()
//	backend.WaitFunc = func(ctx context.Context, id string, _ time.Duration) (*cotc.RawResult, error) {
//		return cotctest.RejectedResult(id, cotctest.Validator("pii", cotctest.Finding("high", "email address"))), nil
//	}
//	o, _ := cotc.NewOrchestrator(backend, registry)
package cotctest

import (
	"context"
	"fmt"
	"sync"
	"time"

	cotc "github.com/cotcprotocol/gosdk"
)

// Backend is a scriptable cotc.Backend and cotc.Canceler. Unset funcs fall back to approving every
// request. It records every call and is safe for concurrent use.
type Backend struct {
	SubmitFunc  func(ctx context.Context, req *cotc.ValidationRequest) (string, error)
	WaitFunc    func(ctx context.Context, validationID string, timeout time.Duration) (*cotc.RawResult, error)
	MetricsFunc func(ctx context.Context, timeRange cotc.TimeRange, filter *cotc.MetricsFilter) (*cotc.RawMetrics, error)
	CancelFunc  func(ctx context.Context, validationID string) error

	// Latency delays every Submit and WaitForCompletion, honoring the context.
	Latency time.Duration

	mu       sync.Mutex
	requests []*cotc.ValidationRequest
	waits    []string
	canceled []string
	metrics  int
	inFlight int
	peak     int
}

var (
	_ cotc.Backend  = (*Backend)(nil)
	_ cotc.Canceler = (*Backend)(nil)
)

// NewBackend returns a Backend that approves everything.
func NewBackend() *Backend {
	return &Backend{}
}

func (b *Backend) enter() func() {
	b.mu.Lock()
	b.inFlight++
	b.peak = max(b.peak, b.inFlight)
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		b.inFlight--
		b.mu.Unlock()
	}
}

func (b *Backend) sleep(ctx context.Context) error {
	if b.Latency <= 0 {
		return nil
	}
	t := time.NewTimer(b.Latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Submit records req and returns a validation id.
func (b *Backend) Submit(ctx context.Context, req *cotc.ValidationRequest) (string, error) {
	defer b.enter()()

	b.mu.Lock()
	b.requests = append(b.requests, req)
	n := len(b.requests)
	b.mu.Unlock()

	if err := b.sleep(ctx); err != nil {
		return "", err
	}
	if b.SubmitFunc != nil {
		return b.SubmitFunc(ctx, req)
	}
	return fmt.Sprintf("val-%d", n), nil
}

// WaitForCompletion records the wait and returns the scripted result.
func (b *Backend) WaitForCompletion(ctx context.Context, validationID string, timeout time.Duration) (*cotc.RawResult, error) {
	defer b.enter()()

	b.mu.Lock()
	b.waits = append(b.waits, validationID)
	b.mu.Unlock()

	if err := b.sleep(ctx); err != nil {
		return nil, err
	}
	if b.WaitFunc != nil {
		return b.WaitFunc(ctx, validationID, timeout)
	}
	return ApprovedResult(validationID), nil
}

// GetMetrics returns the scripted metrics, or SampleMetrics.
func (b *Backend) GetMetrics(ctx context.Context, timeRange cotc.TimeRange, filter *cotc.MetricsFilter) (*cotc.RawMetrics, error) {
	b.mu.Lock()
	b.metrics++
	b.mu.Unlock()

	if b.MetricsFunc != nil {
		return b.MetricsFunc(ctx, timeRange, filter)
	}
	return SampleMetrics(), nil
}

// Cancel records the cancellation.
func (b *Backend) Cancel(ctx context.Context, validationID string) error {
	b.mu.Lock()
	b.canceled = append(b.canceled, validationID)
	b.mu.Unlock()

	if b.CancelFunc != nil {
		return b.CancelFunc(ctx, validationID)
	}
	return nil
}

// Requests returns the submitted requests in submission order.
func (b *Backend) Requests() []*cotc.ValidationRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*cotc.ValidationRequest(nil), b.requests...)
}

// SubmitCalls returns the number of Submit calls.
func (b *Backend) SubmitCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

// WaitCalls returns the number of WaitForCompletion calls.
func (b *Backend) WaitCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.waits)
}

// MetricsCalls returns the number of GetMetrics calls.
func (b *Backend) MetricsCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.metrics
}

// Canceled returns the ids passed to Cancel.
func (b *Backend) Canceled() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.canceled...)
}

// PeakConcurrency returns the highest number of Submit and WaitForCompletion calls that were in
// flight at the same time.
func (b *Backend) PeakConcurrency() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.peak
}

// Finding builds a raw finding.
func Finding(severity, description string) cotc.RawFinding {
	return cotc.RawFinding{
		Type:        "policy_violation",
		Severity:    severity,
		Category:    "content",
		Description: description,
	}
}

// Validator builds a raw validator result.
func Validator(name string, findings ...cotc.RawFinding) cotc.RawValidatorResult {
	return cotc.RawValidatorResult{ValidatorName: name, Findings: findings}
}

// ApprovedResult is a completed, approved raw result without findings.
func ApprovedResult(validationID string) *cotc.RawResult {
	return &cotc.RawResult{
		ValidationID:        validationID,
		State:               cotc.RawStateCompleted,
		OverallResult:       "approved",
		Confidence:          0.95,
		AuditTrailHash:      "sha256:" + validationID,
		TotalProcessingTime: 1200,
	}
}

// RejectedResult is a completed, rejected raw result requiring human review.
func RejectedResult(validationID string, validators ...cotc.RawValidatorResult) *cotc.RawResult {
	return &cotc.RawResult{
		ValidationID:        validationID,
		State:               cotc.RawStateCompleted,
		OverallResult:       "rejected",
		Confidence:          0.4,
		HumanReviewRequired: true,
		ValidatorResults:    validators,
		AuditTrailHash:      "sha256:" + validationID,
		TotalProcessingTime: 2400,
	}
}

// SampleMetrics is a complete raw metrics payload.
func SampleMetrics() *cotc.RawMetrics {
	return &cotc.RawMetrics{
		Summary: &cotc.RawSummaryMetrics{
			TotalValidations:      1250,
			SuccessRate:           0.92,
			AverageProcessingTime: 1800,
			HumanReviewRate:       0.08,
		},
		Reliability: &cotc.RawReliabilityMetrics{
			AccuracyRate:          0.97,
			FalsePositiveRate:     0.02,
			FailurePreventionRate: 0.99,
		},
		Compliance: &cotc.RawComplianceMetrics{
			ComplianceScore:     0.95,
			ViolationsPrevented: 37,
			AuditReadinessScore: 0.9,
		},
		Efficiency: &cotc.RawEfficiencyMetrics{
			ReviewTimeReduction: 0.6,
			CostSavings:         12000,
			AutomationRate:      0.85,
		},
	}
}
