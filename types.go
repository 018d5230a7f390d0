package cotc

import (
	"fmt"
	"maps"
	"math"
	"time"

	"github.com/cotcprotocol/gosdk/internal/wire"
)

// Priority tells the service how urgently a validation should be scheduled.
type Priority string

const (
	// PriorityLow is for background and bulk validations.
	PriorityLow Priority = "low"
	// PriorityMedium is the default.
	PriorityMedium Priority = "medium"
	// PriorityHigh jumps the queue. Use it for content that blocks a user-facing flow.
	PriorityHigh Priority = "high"
)

// IsValid returns true if the priority is one of the known levels.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// String returns the string representation of the priority.
func (p Priority) String() string {
	return string(p)
}

// ParsePriority parses a priority level. The empty string parses as PriorityMedium.
func ParsePriority(s string) (Priority, error) {
	if s == "" {
		return PriorityMedium, nil
	}
	p := Priority(s)
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
	return p, nil
}

// Status is the normalized status of a validation.
type Status string

const (
	// StatusApproved means the content passed its contract.
	StatusApproved Status = "approved"
	// StatusRejected means the service completed the validation but did not approve the content.
	StatusRejected Status = "rejected"
	// StatusError means no verdict could be obtained. ErrorType says why.
	StatusError Status = "error"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Severity is the severity of a single finding.
type Severity string

const (
	// SeverityInfo is informational. Unknown severities normalize to it.
	SeverityInfo Severity = "info"
	// SeverityLow is a minor issue.
	SeverityLow Severity = "low"
	// SeverityMedium should be addressed before publishing.
	SeverityMedium Severity = "medium"
	// SeverityHigh blocks publishing.
	SeverityHigh Severity = "high"
	// SeverityCritical blocks publishing and may trigger compliance escalation.
	SeverityCritical Severity = "critical"
)

// IsValid returns true if the severity is one of the known levels.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

func (s Severity) fromRaw(raw string) Severity {
	if sev := Severity(raw); sev.IsValid() {
		return sev
	}
	return SeverityInfo
}

// Requester describes the system that asked for a validation.
type Requester struct {
	// System is the name of the originating system.
	System string
	// UseCase is the business use case the content belongs to.
	UseCase string
	// CreatedAt is when the request was generated.
	CreatedAt time.Time
}

// A ValidationRequest is built once per Validate call and handed to the Backend. Backends must
// treat it as read-only.
type ValidationRequest struct {
	// ID is generated client side and lets the service deduplicate retried submissions.
	ID         string
	Content    string
	ContractID string
	Metadata   map[string]any
	Priority   Priority
	Requester  Requester
}

func (r *ValidationRequest) toWire() *wire.SubmitRequest {
	return &wire.SubmitRequest{
		RequestID:  r.ID,
		Content:    r.Content,
		ContractID: r.ContractID,
		Metadata:   maps.Clone(r.Metadata),
		Priority:   r.Priority.String(),
		Requester: wire.Requester{
			System:    r.Requester.System,
			UseCase:   r.Requester.UseCase,
			Timestamp: r.Requester.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
}

// Finding is a single issue reported by one validator.
type Finding struct {
	// Validator is the name of the validator that raised the finding.
	Validator      string   `json:"validator"`
	Type           string   `json:"type"`
	Severity       Severity `json:"severity"`
	Category       string   `json:"category"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation,omitempty"`
	Location       string   `json:"location,omitempty"`
}

// StakeholderNotification records a stakeholder the service notified about a validation.
type StakeholderNotification struct {
	Stakeholder string    `json:"stakeholder"`
	Role        string    `json:"role,omitempty"`
	Channel     string    `json:"channel,omitempty"`
	Message     string    `json:"message,omitempty"`
	SentAt      time.Time `json:"sent_at,omitzero"`
}

func (n *StakeholderNotification) fromRaw(raw RawNotification) *StakeholderNotification {
	n.Stakeholder = raw.Stakeholder
	n.Role = raw.Role
	n.Channel = raw.Channel
	n.Message = raw.Message
	if raw.SentAt != "" {
		// A malformed timestamp leaves SentAt zero; the notification itself is still useful.
		if t, err := time.Parse(time.RFC3339Nano, raw.SentAt); err == nil {
			n.SentAt = t
		}
	}
	return n
}

// A ValidationResult is the only shape Validate returns. Failures are represented in the same shape
// with Status set to StatusError and ErrorType describing the failure.
type ValidationResult struct {
	// ValidationID is the identifier assigned by the service. Empty if the request never reached it.
	ValidationID string `json:"validation_id,omitempty"`
	Status       Status `json:"status"`
	// Outcome is the verdict exactly as reported by the service (e.g. "approved", "requires_review").
	Outcome             string  `json:"outcome,omitempty"`
	Approved            bool    `json:"approved"`
	Confidence          float64 `json:"confidence"`
	HumanReviewRequired bool    `json:"requires_human_review"`
	// Findings from every validator, flattened in the order the service reported them.
	Findings                 []Finding                 `json:"findings"`
	AuditTrailHash           string                    `json:"audit_trail_hash,omitempty"`
	ProcessingTime           time.Duration             `json:"processing_time"`
	StakeholderNotifications []StakeholderNotification `json:"stakeholder_notifications,omitempty"`

	ErrorType    ErrorType `json:"error_type,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// Failed reports whether the result is an error shape.
func (r *ValidationResult) Failed() bool {
	return r.Status == StatusError
}

func (r *ValidationResult) fromRaw(raw *RawResult) (*ValidationResult, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: no result", ErrMalformedResult)
	}
	if raw.ValidationID == "" {
		return nil, fmt.Errorf("%w: missing validation id", ErrMalformedResult)
	}
	if raw.OverallResult == "" {
		return nil, fmt.Errorf("%w: missing overall result for %s", ErrMalformedResult, raw.ValidationID)
	}
	if math.IsNaN(raw.Confidence) || raw.Confidence < 0 || raw.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %v out of range for %s", ErrMalformedResult, raw.Confidence, raw.ValidationID)
	}

	r.ValidationID = raw.ValidationID
	r.Outcome = raw.OverallResult
	r.Approved = raw.OverallResult == string(StatusApproved)
	if r.Approved {
		r.Status = StatusApproved
	} else {
		r.Status = StatusRejected
	}
	r.Confidence = raw.Confidence
	r.HumanReviewRequired = raw.HumanReviewRequired
	r.AuditTrailHash = raw.AuditTrailHash
	r.ProcessingTime = time.Duration(raw.TotalProcessingTime * float64(time.Millisecond))
	r.Findings = flattenFindings(raw.ValidatorResults)

	r.StakeholderNotifications = make([]StakeholderNotification, len(raw.StakeholderNotifications))
	for i, n := range raw.StakeholderNotifications {
		r.StakeholderNotifications[i] = *(new(StakeholderNotification).fromRaw(n))
	}
	return r, nil
}

// flattenFindings turns the per-validator findings into one list, keeping the service's order and
// tagging every finding with the validator that raised it.
func flattenFindings(validators []RawValidatorResult) []Finding {
	total := 0
	for _, v := range validators {
		total += len(v.Findings)
	}

	findings := make([]Finding, 0, total)
	for _, v := range validators {
		for _, f := range v.Findings {
			findings = append(findings, Finding{
				Validator:      v.ValidatorName,
				Type:           f.Type,
				Severity:       Severity("").fromRaw(f.Severity),
				Category:       f.Category,
				Description:    f.Description,
				Recommendation: f.Recommendation,
				Location:       f.Location,
			})
		}
	}
	return findings
}

// newErrorResult builds the error shape for a failed validation.
func newErrorResult(validationID string, errType ErrorType, err error) *ValidationResult {
	return &ValidationResult{
		ValidationID:        validationID,
		Status:              StatusError,
		Approved:            false,
		Confidence:          0.0,
		HumanReviewRequired: true,
		Findings:            []Finding{},
		ErrorType:           errType,
		ErrorMessage:        err.Error(),
	}
}

// TimeRange selects the window GetMetrics aggregates over.
type TimeRange string

const (
	TimeRangeHour  TimeRange = "1h"
	TimeRangeDay   TimeRange = "24h"
	TimeRangeWeek  TimeRange = "7d"
	TimeRangeMonth TimeRange = "30d"
)

// IsValid returns true if the time range is one the service aggregates over.
func (t TimeRange) IsValid() bool {
	switch t {
	case TimeRangeHour, TimeRangeDay, TimeRangeWeek, TimeRangeMonth:
		return true
	}
	return false
}

// SummaryMetrics is the headline group of Metrics.
type SummaryMetrics struct {
	TotalValidations      float64 `json:"total_validations"`
	SuccessRate           float64 `json:"success_rate"`
	AverageProcessingTime float64 `json:"average_processing_time"`
	HumanReviewRate       float64 `json:"human_review_rate"`
}

// ReliabilityMetrics describes how often validators get the verdict right.
type ReliabilityMetrics struct {
	AccuracyRate          float64 `json:"accuracy_rate"`
	FalsePositiveRate     float64 `json:"false_positive_rate"`
	FailurePreventionRate float64 `json:"failure_prevention_rate"`
}

// ComplianceMetrics describes regulatory outcomes.
type ComplianceMetrics struct {
	ComplianceScore     float64 `json:"compliance_score"`
	ViolationsPrevented float64 `json:"violations_prevented"`
	AuditReadinessScore float64 `json:"audit_readiness_score"`
}

// EfficiencyMetrics describes how much manual review the service saved.
type EfficiencyMetrics struct {
	ReviewTimeReduction float64 `json:"review_time_reduction"`
	CostSavings         float64 `json:"cost_savings"`
	AutomationRate      float64 `json:"automation_rate"`
}

// Metrics are aggregate validation statistics over a time range.
type Metrics struct {
	Summary     SummaryMetrics     `json:"summary"`
	Reliability ReliabilityMetrics `json:"reliability"`
	Compliance  ComplianceMetrics  `json:"compliance"`
	Efficiency  EfficiencyMetrics  `json:"efficiency"`
}

func (m *Metrics) fromRaw(raw *RawMetrics) (*Metrics, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: no metrics", ErrMalformedResult)
	}
	if raw.Summary == nil || raw.Reliability == nil || raw.Compliance == nil || raw.Efficiency == nil {
		return nil, fmt.Errorf("%w: incomplete metrics", ErrMalformedResult)
	}

	m.Summary = SummaryMetrics{
		TotalValidations:      raw.Summary.TotalValidations,
		SuccessRate:           raw.Summary.SuccessRate,
		AverageProcessingTime: raw.Summary.AverageProcessingTime,
		HumanReviewRate:       raw.Summary.HumanReviewRate,
	}
	m.Reliability = ReliabilityMetrics{
		AccuracyRate:          raw.Reliability.AccuracyRate,
		FalsePositiveRate:     raw.Reliability.FalsePositiveRate,
		FailurePreventionRate: raw.Reliability.FailurePreventionRate,
	}
	m.Compliance = ComplianceMetrics{
		ComplianceScore:     raw.Compliance.ComplianceScore,
		ViolationsPrevented: raw.Compliance.ViolationsPrevented,
		AuditReadinessScore: raw.Compliance.AuditReadinessScore,
	}
	m.Efficiency = EfficiencyMetrics{
		ReviewTimeReduction: raw.Efficiency.ReviewTimeReduction,
		CostSavings:         raw.Efficiency.CostSavings,
		AutomationRate:      raw.Efficiency.AutomationRate,
	}
	return m, nil
}
