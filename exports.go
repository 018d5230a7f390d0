package cotc

import "github.com/cotcprotocol/gosdk/internal/wire"

// Raw payloads as reported by the validation service. Backends return these and the Orchestrator
// normalizes them; callers of Validate never see them.
type (
	RawResult          = wire.Result
	RawValidatorResult = wire.ValidatorResult
	RawFinding         = wire.Finding
	RawNotification    = wire.Notification
	RawState           = wire.State

	RawMetrics            = wire.Metrics
	RawSummaryMetrics     = wire.SummaryMetrics
	RawReliabilityMetrics = wire.ReliabilityMetrics
	RawComplianceMetrics  = wire.ComplianceMetrics
	RawEfficiencyMetrics  = wire.EfficiencyMetrics

	// MetricsFilter narrows a metrics query to a subset of use cases.
	MetricsFilter = wire.MetricsFilters
)

const (
	RawStatePending   = wire.StatePending
	RawStateRunning   = wire.StateRunning
	RawStateCompleted = wire.StateCompleted
	RawStateFailed    = wire.StateFailed
	RawStateCanceled  = wire.StateCanceled
)
