package cotc_test

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	cotc "github.com/cotcprotocol/gosdk"
	"github.com/cotcprotocol/gosdk/cotctest"
)

var quiet = cotc.WithLogger(slog.New(slog.DiscardHandler))

// Example demonstrates how to connect to the validation service and validate content.
func Example() {
	// Create a new client with your API key
	client, err := cotc.New(cotc.WithAPIKey("your-api-key-here"))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	registry, err := cotc.NewRegistry(map[string]string{
		"financial_content":      "fin-content-001",
		"customer_communication": "customer-comm-001",
	})
	if err != nil {
		log.Fatal(err)
	}

	orchestrator, err := cotc.NewOrchestrator(client, registry)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	result := orchestrator.Validate(ctx,
		"Based on our Q3 analysis, we recommend increasing allocation to tech stocks by 15%.",
		"financial_content",
		cotc.WithPriority(cotc.PriorityHigh),
		cotc.WithMetadata(map[string]any{"document_type": "investment_recommendation"}),
	)

	switch result.Status {
	case cotc.StatusApproved:
		fmt.Printf("Approved with confidence %.2f\n", result.Confidence)
	case cotc.StatusRejected:
		fmt.Printf("Rejected with %d findings\n", len(result.Findings))
	case cotc.StatusError:
		fmt.Printf("No verdict (%s): %s\n", result.ErrorType, result.ErrorMessage)
	}
}

// ExampleOrchestrator_Validate demonstrates how to read findings from a rejected validation.
func ExampleOrchestrator_Validate() {
	backend := cotctest.NewBackend()
	backend.WaitFunc = func(ctx context.Context, id string, _ time.Duration) (*cotc.RawResult, error) {
		return cotctest.RejectedResult(id,
			cotctest.Validator("financial_compliance", cotctest.Finding("high", "missing risk disclosure")),
			cotctest.Validator("tone", cotctest.Finding("low", "overly promotional language")),
		), nil
	}

	registry, _ := cotc.NewRegistry(map[string]string{"financial_content": "fin-content-001"})
	orchestrator, _ := cotc.NewOrchestrator(backend, registry, quiet)

	result := orchestrator.Validate(context.Background(), "Buy now, returns guaranteed!", "financial_content")

	fmt.Println("status:", result.Status)
	fmt.Println("human review:", result.HumanReviewRequired)
	for _, f := range result.Findings {
		fmt.Printf("[%s] %s: %s\n", f.Severity, f.Validator, f.Description)
	}
	// Output:
	// status: rejected
	// human review: true
	// [high] financial_compliance: missing risk disclosure
	// [low] tone: overly promotional language
}

// ExampleOrchestrator_Validate_unknownUseCase shows that unknown use cases fail without contacting
// the service.
func ExampleOrchestrator_Validate_unknownUseCase() {
	backend := cotctest.NewBackend()
	registry, _ := cotc.NewRegistry(map[string]string{"financial_content": "fin-content-001"})
	orchestrator, _ := cotc.NewOrchestrator(backend, registry, quiet)

	result := orchestrator.Validate(context.Background(), "Hello", "marketing_copy")

	fmt.Println(result.Status, result.ErrorType, result.Approved)
	fmt.Println("submitted:", backend.SubmitCalls())
	// Output:
	// error unknown_use_case false
	// submitted: 0
}

// ExampleBatchValidator demonstrates how to validate many items at once.
func ExampleBatchValidator() {
	backend := cotctest.NewBackend()
	registry, _ := cotc.NewRegistry(map[string]string{"customer_communication": "customer-comm-001"})
	orchestrator, _ := cotc.NewOrchestrator(backend, registry, quiet)

	items := []cotc.BatchItem{
		{Content: "Your order has shipped.", UseCase: "customer_communication"},
		{Content: "Your refund is on its way.", UseCase: "customer_communication"},
		{Content: "", UseCase: "customer_communication"},
	}

	results := cotc.NewBatchValidator(orchestrator, 2).Validate(context.Background(), items)
	summary := cotc.Summarize(results)

	fmt.Printf("total=%d approved=%d errored=%d\n", summary.Total, summary.Approved, summary.Errored)
	fmt.Println(results[2].ErrorType)
	// Output:
	// total=3 approved=2 errored=1
	// invalid_request
}

// ExampleOrchestrator_GetMetrics demonstrates how to read aggregate statistics.
func ExampleOrchestrator_GetMetrics() {
	backend := cotctest.NewBackend()
	registry, _ := cotc.NewRegistry(map[string]string{"financial_content": "fin-content-001"})
	orchestrator, _ := cotc.NewOrchestrator(backend, registry, quiet)

	metrics := orchestrator.GetMetrics(context.Background(), cotc.TimeRangeWeek, "financial_content")
	if metrics == nil {
		fmt.Println("metrics unavailable")
		return
	}

	fmt.Printf("validations: %.0f\n", metrics.Summary.TotalValidations)
	fmt.Printf("success rate: %.2f\n", metrics.Summary.SuccessRate)
	fmt.Printf("automation rate: %.2f\n", metrics.Efficiency.AutomationRate)
	// Output:
	// validations: 1250
	// success rate: 0.92
	// automation rate: 0.85
}

// ExampleLoadConfig demonstrates how to wire everything from a configuration file.
func ExampleLoadConfig() {
	config, err := cotc.LoadConfig("cotc.yaml")
	if err != nil {
		log.Fatal(err)
	}

	client, err := cotc.New(config.ClientOptions()...)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	registry, err := config.Registry()
	if err != nil {
		log.Fatal(err)
	}

	orchestrator, err := cotc.NewOrchestrator(client, registry, config.OrchestratorOptions()...)
	if err != nil {
		log.Fatal(err)
	}

	results := cotc.NewBatchValidator(orchestrator, config.Batch.Workers).Validate(context.Background(), []cotc.BatchItem{
		{Content: "Thanks for reaching out!", UseCase: "customer_communication"},
	})
	fmt.Println(results[0].Status)
}
