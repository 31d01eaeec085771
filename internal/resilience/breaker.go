// Package resilience wraps the worker's external calls (test-case
// fetch, store save) with circuit breakers, trimmed from the ancestor's
// four-named-breaker CircuitBreakerService down to the two external
// dependencies this worker actually calls out to.
package resilience

import (
	"fmt"
	"log"
	"time"

	"github.com/sony/gobreaker"
)

// Breakers holds one circuit breaker per external dependency this
// worker calls synchronously from the job processor.
type Breakers struct {
	testCase *gobreaker.CircuitBreaker
	store    *gobreaker.CircuitBreaker
}

// New builds breakers that open after three consecutive failures and
// stay open for ten seconds before probing again.
func New() *Breakers {
	settings := func(name string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        name,
			MaxRequests: 3,
			Interval:    30 * time.Second,
			Timeout:     10 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Printf("circuit breaker %q changed from %s to %s", name, from, to)
			},
		}
	}

	return &Breakers{
		testCase: gobreaker.NewCircuitBreaker(settings("testcase-client")),
		store:    gobreaker.NewCircuitBreaker(settings("result-store")),
	}
}

// TestCase executes op guarded by the test-case-client breaker.
func (b *Breakers) TestCase(op func() error) error {
	_, err := b.testCase.Execute(func() (interface{}, error) {
		return nil, op()
	})
	if err != nil {
		return fmt.Errorf("testcase client: %w", err)
	}
	return nil
}

// Store executes op guarded by the result-store breaker.
func (b *Breakers) Store(op func() error) error {
	_, err := b.store.Execute(func() (interface{}, error) {
		return nil, op()
	})
	if err != nil {
		return fmt.Errorf("result store: %w", err)
	}
	return nil
}
