package cotc_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cotc "github.com/cotcprotocol/gosdk"
	"github.com/cotcprotocol/gosdk/cotctest"
)

func TestNewBatchValidator(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, 4, cotc.NewBatchValidator(f.orchestrator, 4).Workers())
	assert.Equal(t, 10, cotc.NewBatchValidator(f.orchestrator, 0).Workers())
	assert.Equal(t, 10, cotc.NewBatchValidator(f.orchestrator, -3).Workers())
}

func TestBatchValidator_Validate(t *testing.T) {
	f := newFixture(t)
	f.backend.Latency = 5 * time.Millisecond
	f.backend.WaitFunc = func(ctx context.Context, id string, _ time.Duration) (*cotc.RawResult, error) {
		return cotctest.ApprovedResult(id), nil
	}

	// Items whose content starts with "bad" fail on submission.
	f.backend.SubmitFunc = func(ctx context.Context, req *cotc.ValidationRequest) (string, error) {
		if strings.HasPrefix(req.Content, "bad") {
			return "", &cotc.ValidationError{Message: "rejected: " + req.Content}
		}
		return "id-" + req.Content, nil
	}

	const n, workers = 25, 4
	items := make([]cotc.BatchItem, n)
	failing := 0
	for i := range items {
		content := fmt.Sprintf("item-%02d", i)
		if i%5 == 0 {
			content = fmt.Sprintf("bad-%02d", i)
			failing++
		}
		items[i] = cotc.BatchItem{Content: content, UseCase: "financial_content"}
	}

	results := cotc.NewBatchValidator(f.orchestrator, workers).Validate(context.Background(), items)

	require.Len(t, results, n)
	failed := 0
	for i, res := range results {
		require.NotNil(t, res, "result %d", i)
		if i%5 == 0 {
			failed++
			assert.Equal(t, cotc.StatusError, res.Status)
			assert.Equal(t, cotc.ErrorTypeValidation, res.ErrorType)
			assert.Contains(t, res.ErrorMessage, items[i].Content)
			continue
		}
		// Results line up with their items.
		assert.Equal(t, cotc.StatusApproved, res.Status)
		assert.Equal(t, "id-"+items[i].Content, res.ValidationID)
	}
	assert.Equal(t, failing, failed)
	assert.Equal(t, n, f.backend.SubmitCalls())
	assert.LessOrEqual(t, f.backend.PeakConcurrency(), workers)
	assert.Greater(t, f.backend.PeakConcurrency(), 1)
}

func TestBatchValidator_PerItemOptions(t *testing.T) {
	f := newFixture(t)

	items := []cotc.BatchItem{
		{Content: "one", UseCase: "financial_content", Options: []cotc.ValidateOption{cotc.WithPriority(cotc.PriorityHigh)}},
		{Content: "two", UseCase: "customer_communication"},
		{Content: "three", UseCase: "marketing_copy"},
	}

	results := cotc.NewBatchValidator(f.orchestrator, 1).Validate(context.Background(), items)

	require.Len(t, results, 3)
	assert.Equal(t, cotc.ErrorTypeUnknownUseCase, results[2].ErrorType)

	reqs := f.backend.Requests()
	require.Len(t, reqs, 2)
	byContent := make(map[string]*cotc.ValidationRequest)
	for _, r := range reqs {
		byContent[r.Content] = r
	}
	assert.Equal(t, cotc.PriorityHigh, byContent["one"].Priority)
	assert.Equal(t, "fin-content-001", byContent["one"].ContractID)
	assert.Equal(t, cotc.PriorityMedium, byContent["two"].Priority)
	assert.Equal(t, "customer-comm-001", byContent["two"].ContractID)
}

func TestBatchValidator_Empty(t *testing.T) {
	f := newFixture(t)

	results := cotc.NewBatchValidator(f.orchestrator, 3).Validate(context.Background(), nil)
	assert.Empty(t, results)
	assert.Zero(t, f.backend.SubmitCalls())
}

func TestBatchValidator_CancelledContext(t *testing.T) {
	f := newFixture(t)
	f.backend.Latency = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := []cotc.BatchItem{
		{Content: "one", UseCase: "financial_content"},
		{Content: "two", UseCase: "financial_content"},
	}
	results := cotc.NewBatchValidator(f.orchestrator, 2).Validate(ctx, items)

	require.Len(t, results, 2)
	for _, res := range results {
		assert.Equal(t, cotc.StatusError, res.Status)
		assert.Equal(t, cotc.ErrorTypeSystem, res.ErrorType)
	}
}

func TestSummarize(t *testing.T) {
	results := []*cotc.ValidationResult{
		{Status: cotc.StatusApproved, Approved: true},
		{Status: cotc.StatusApproved, Approved: true, HumanReviewRequired: true},
		{Status: cotc.StatusRejected, HumanReviewRequired: true},
		{Status: cotc.StatusError, ErrorType: cotc.ErrorTypeTimeout, HumanReviewRequired: true},
		{Status: cotc.StatusError, ErrorType: cotc.ErrorTypeTimeout, HumanReviewRequired: true},
		{Status: cotc.StatusError, ErrorType: cotc.ErrorTypeSystem, HumanReviewRequired: true},
		nil,
	}

	summary := cotc.Summarize(results)

	assert.Equal(t, 6, summary.Total)
	assert.Equal(t, 2, summary.Approved)
	assert.Equal(t, 1, summary.Rejected)
	assert.Equal(t, 3, summary.Errored)
	assert.Equal(t, 5, summary.HumanReview)
	assert.Equal(t, map[cotc.ErrorType]int{
		cotc.ErrorTypeTimeout: 2,
		cotc.ErrorTypeSystem:  1,
	}, summary.ErrorsByType)
}
