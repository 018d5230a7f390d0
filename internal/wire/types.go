package wire

// Fully-qualified gRPC method names of the validation service.
const (
	ServiceName = "cotc.v1.ValidationService"

	MethodSubmitValidation = "/" + ServiceName + "/SubmitValidation"
	MethodGetValidation    = "/" + ServiceName + "/GetValidation"
	MethodCancelValidation = "/" + ServiceName + "/CancelValidation"
	MethodGetMetrics       = "/" + ServiceName + "/GetMetrics"
)

// State is the lifecycle state of a validation job as reported by the service.
type State string

const (
	// StatePending means the job is queued.
	StatePending State = "pending"
	// StateRunning means validators are working on the job.
	StateRunning State = "running"
	// StateCompleted means the result fields are populated.
	StateCompleted State = "completed"
	// StateFailed means the service gave up on the job. Error carries the reason.
	StateFailed State = "failed"
	// StateCanceled means the job was aborted through CancelValidation before it completed.
	StateCanceled State = "canceled"
)

// Done reports whether the state is terminal.
func (s State) Done() bool {
	return s == StateCompleted || s == StateFailed || s == StateCanceled
}

// Requester identifies who asked for a validation.
type Requester struct {
	System    string `json:"system"`
	UseCase   string `json:"useCase"`
	Timestamp string `json:"timestamp"`
}

// SubmitRequest is the payload of SubmitValidation.
type SubmitRequest struct {
	// RequestID is generated client side so that retried submissions can be deduplicated.
	RequestID  string         `json:"requestId"`
	Content    string         `json:"content"`
	ContractID string         `json:"contractId"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Priority   string         `json:"priority"`
	Requester  Requester      `json:"requester"`
}

// SubmitResponse is the reply to SubmitValidation.
type SubmitResponse struct {
	ValidationID string `json:"validationId"`
}

// ValidationRef addresses an existing validation job. Used by GetValidation and CancelValidation.
type ValidationRef struct {
	ValidationID string `json:"validationId"`
}

// Finding is a single issue raised by one validator.
type Finding struct {
	Type           string `json:"type"`
	Severity       string `json:"severity"`
	Category       string `json:"category"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation,omitempty"`
	Location       string `json:"location,omitempty"`
}

// ValidatorResult groups the findings of one validator.
type ValidatorResult struct {
	ValidatorName string    `json:"validatorName"`
	Findings      []Finding `json:"findings,omitempty"`
}

// Notification records a stakeholder the service notified about the outcome.
type Notification struct {
	Stakeholder string `json:"stakeholder"`
	Role        string `json:"role,omitempty"`
	Channel     string `json:"channel,omitempty"`
	Message     string `json:"message,omitempty"`
	SentAt      string `json:"sentAt,omitempty"`
}

// Result is the reply to GetValidation.
type Result struct {
	ValidationID        string            `json:"validationId"`
	State               State             `json:"state"`
	OverallResult       string            `json:"overallResult,omitempty"`
	Confidence          float64           `json:"confidence"`
	HumanReviewRequired bool              `json:"humanReviewRequired"`
	ValidatorResults    []ValidatorResult `json:"validatorResults,omitempty"`
	AuditTrailHash      string            `json:"auditTrailHash,omitempty"`
	// TotalProcessingTime is in milliseconds.
	TotalProcessingTime      float64        `json:"totalProcessingTime"`
	StakeholderNotifications []Notification `json:"stakeholderNotifications,omitempty"`
	Error                    string         `json:"error,omitempty"`
}

// MetricsFilters narrows a metrics query.
type MetricsFilters struct {
	UseCases []string `json:"useCases,omitempty"`
}

// MetricsRequest is the payload of GetMetrics.
type MetricsRequest struct {
	TimeRange string          `json:"timeRange"`
	Filters   *MetricsFilters `json:"filters,omitempty"`
}

// SummaryMetrics is the headline group of a metrics reply.
type SummaryMetrics struct {
	TotalValidations      float64 `json:"totalValidations"`
	SuccessRate           float64 `json:"successRate"`
	AverageProcessingTime float64 `json:"averageProcessingTime"`
	HumanReviewRate       float64 `json:"humanReviewRate"`
}

// ReliabilityMetrics is the validator accuracy group of a metrics reply.
type ReliabilityMetrics struct {
	AccuracyRate          float64 `json:"accuracyRate"`
	FalsePositiveRate     float64 `json:"falsePositiveRate"`
	FailurePreventionRate float64 `json:"failurePreventionRate"`
}

// ComplianceMetrics is the regulatory group of a metrics reply.
type ComplianceMetrics struct {
	ComplianceScore     float64 `json:"complianceScore"`
	ViolationsPrevented float64 `json:"violationsPrevented"`
	AuditReadinessScore float64 `json:"auditReadinessScore"`
}

// EfficiencyMetrics is the review automation group of a metrics reply.
type EfficiencyMetrics struct {
	ReviewTimeReduction float64 `json:"reviewTimeReduction"`
	CostSavings         float64 `json:"costSavings"`
	AutomationRate      float64 `json:"automationRate"`
}

// Metrics is the reply to GetMetrics. A nil group means the service did not report it.
type Metrics struct {
	Summary     *SummaryMetrics     `json:"summary,omitempty"`
	Reliability *ReliabilityMetrics `json:"reliability,omitempty"`
	Compliance  *ComplianceMetrics  `json:"compliance,omitempty"`
	Efficiency  *EfficiencyMetrics  `json:"efficiency,omitempty"`
}
