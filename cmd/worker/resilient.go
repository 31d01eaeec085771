package main

import (
	"context"

	"judgeworker/internal/model"
	"judgeworker/internal/resilience"
	"judgeworker/internal/store"
	"judgeworker/internal/testcase"
)

// resilientFetcher wraps the test-case client with its circuit breaker,
// so a struggling content service trips the breaker instead of piling
// up slow requests against the job processor.
type resilientFetcher struct {
	client   *testcase.Client
	breakers *resilience.Breakers
}

func (r *resilientFetcher) Fetch(ctx context.Context, problemID string) ([]model.TestCase, error) {
	var tests []model.TestCase
	err := r.breakers.TestCase(func() error {
		var fetchErr error
		tests, fetchErr = r.client.Fetch(ctx, problemID)
		return fetchErr
	})
	return tests, err
}

// resilientStore wraps the Mongo store with its circuit breaker.
type resilientStore struct {
	store    *store.Store
	breakers *resilience.Breakers
}

func (s *resilientStore) FindSubmission(ctx context.Context, id string) (*model.Submission, error) {
	var sub *model.Submission
	err := s.breakers.Store(func() error {
		var findErr error
		sub, findErr = s.store.FindSubmission(ctx, id)
		return findErr
	})
	return sub, err
}

func (s *resilientStore) Save(ctx context.Context, sub *model.Submission) error {
	return s.breakers.Store(func() error {
		return s.store.Save(ctx, sub)
	})
}
