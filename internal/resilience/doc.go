// Package resilience provides reliability and fault tolerance patterns for
// the pipeline's external edges: feed and page fetches, the headless
// renderer, the classification APIs, and the database.
//
// The package supports:
//   - Circuit breakers built on sony/gobreaker, one per call strategy
//   - Retry logic with exponential backoff and jitter
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.DefaultConfig("my-service"))
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return callExternalService()
//	})
//
//	err := retry.WithBackoff(ctx, retry.DefaultConfig(), func() error {
//	    return performOperation()
//	})
package resilience
