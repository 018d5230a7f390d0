// Package cotc provides a Go client for the COTC content validation service.
//
// COTC validates AI-generated content against contracts: server-side policies that decide whether
// content may be published, must be revised, or needs a human to look at it. Every business use
// case (e.g. "financial_content") is governed by exactly one contract.
//
// # Quick Start
//
//	client, err := cotc.New(cotc.WithAPIKey("your-api-key"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	registry, err := cotc.NewRegistry(map[string]string{
//		"financial_content": "fin-content-001",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	orchestrator, err := cotc.NewOrchestrator(client, registry)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result := orchestrator.Validate(ctx, content, "financial_content",
//		cotc.WithPriority(cotc.PriorityHigh),
//		cotc.WithMetadata(map[string]any{"document_type": "investment_recommendation"}),
//	)
//	if result.Approved {
//		fmt.Println("approved with confidence", result.Confidence)
//	}
//
// # Results and Failures
//
// Orchestrator.Validate never returns an error. Every outcome, including failures, is a
// ValidationResult. Branch on Status:
//
//   - StatusApproved: the contract approved the content.
//   - StatusRejected: the service completed the validation but did not approve the content.
//     Findings lists what every validator reported.
//   - StatusError: no verdict. ErrorType says why (unknown_use_case, invalid_request,
//     validation_error, timeout, system_error). Error results are never approved, have a
//     confidence of 0 and always require human review.
//
// Unknown use cases and malformed requests are rejected before anything is sent to the service.
//
// # Backends
//
// The Orchestrator talks to the service through the Backend interface. Client is the production
// implementation; package cotctest provides an in-memory one for tests.
//
// # Retries and Timeouts
//
// The Client retries rate-limited and unavailable responses with exponential backoff and jitter:
//
//	client, err := cotc.New(
//		cotc.WithAPIKey("your-api-key"),
//		cotc.WithRetryConfig(cotc.RetryConfig{
//			MaxRetries:          3,
//			InitialInterval:     500 * time.Millisecond,
//			MaxInterval:         30 * time.Second,
//			Multiplier:          2.0,
//			RandomizationFactor: 0.5,
//		}),
//	)
//
// Validate waits up to 300 seconds for a verdict unless WithDefaultTimeout or
// WithValidationTimeout says otherwise. The caller's context deadline applies too; the smaller
// bound wins. Validations abandoned because of a timeout are cancelled on a best-effort basis.
//
// # Observability
//
// The Orchestrator logs every validation with log/slog (WithLogger), records a "cotc.Validate"
// span (WithTracerProvider) and counts validations by status (WithMeterProvider). Without those
// options it uses slog.Default and the global OpenTelemetry providers.
//
// # Batches
//
// BatchValidator validates many items with bounded parallelism and returns one result per item in
// input order:
//
//	results := cotc.NewBatchValidator(orchestrator, 10).Validate(ctx, items)
//	summary := cotc.Summarize(results)
package cotc
