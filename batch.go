package cotc

import (
	"context"

	"golang.org/x/sync/errgroup"
)

const defaultBatchWorkers = 10

// BatchItem is one piece of content in a batch.
type BatchItem struct {
	Content string
	UseCase string
	// Options apply to this item only, e.g. WithMetadata or WithPriority.
	Options []ValidateOption
}

// BatchValidator validates many items through an Orchestrator with bounded parallelism.
type BatchValidator struct {
	orchestrator *Orchestrator
	workers      int
}

// NewBatchValidator creates a BatchValidator running at most workers validations at a time.
// A non-positive worker count defaults to 10.
func NewBatchValidator(o *Orchestrator, workers int) *BatchValidator {
	if workers <= 0 {
		workers = defaultBatchWorkers
	}
	return &BatchValidator{orchestrator: o, workers: workers}
}

// Workers returns the maximum number of concurrent validations.
func (b *BatchValidator) Workers() int {
	return b.workers
}

// Validate validates every item and returns exactly one result per item, in input order. A
// failing item gets an error-shaped result; it never fails the rest of the batch.
func (b *BatchValidator) Validate(ctx context.Context, items []BatchItem) []*ValidationResult {
	results := make([]*ValidationResult, len(items))

	var g errgroup.Group
	g.SetLimit(b.workers)
	for i, item := range items {
		g.Go(func() error {
			results[i] = b.orchestrator.Validate(ctx, item.Content, item.UseCase, item.Options...)
			return nil
		})
	}
	// Validate never returns an error, so neither does the group.
	_ = g.Wait()

	return results
}

// BatchSummary counts the outcomes of a batch.
type BatchSummary struct {
	Total        int               `json:"total"`
	Approved     int               `json:"approved"`
	Rejected     int               `json:"rejected"`
	Errored      int               `json:"errored"`
	HumanReview  int               `json:"human_review"`
	ErrorsByType map[ErrorType]int `json:"errors_by_type,omitempty"`
}

// Summarize counts approvals, rejections, errors and human review requests across results.
func Summarize(results []*ValidationResult) BatchSummary {
	summary := BatchSummary{ErrorsByType: make(map[ErrorType]int)}
	for _, r := range results {
		if r == nil {
			continue
		}
		summary.Total++
		switch r.Status {
		case StatusApproved:
			summary.Approved++
		case StatusRejected:
			summary.Rejected++
		case StatusError:
			summary.Errored++
			summary.ErrorsByType[r.ErrorType]++
		}
		if r.HumanReviewRequired {
			summary.HumanReview++
		}
	}
	return summary
}
