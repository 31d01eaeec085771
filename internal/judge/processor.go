// Package judge implements the Job Processor: the six-stage pipeline
// that turns one popped queue payload into a terminal Submission
// update. Grounded on the teacher's JudgeWorker.processMessage staging
// in worker/judge.go (claim, load, execute-tests, aggregate, persist)
// and on the claim-run-aggregate-persist shape of the judging_service
// ancestor referenced in the design notes, both reworked around a
// fail-fast test loop and a closed Verdict set instead of the
// teacher's custom-checker scoring model.
package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"judgeworker/internal/logging"
	"judgeworker/internal/metrics"
	"judgeworker/internal/model"
)

// Queue is the subset of the queue adapter the processor needs.
type Queue interface {
	BlockingPop(ctx context.Context, queueKey string) ([]byte, error)
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Store is the subset of the result store adapter the processor needs.
type Store interface {
	FindSubmission(ctx context.Context, id string) (*model.Submission, error)
	Save(ctx context.Context, sub *model.Submission) error
}

// TestCaseFetcher fetches the ordered test cases for a problem.
type TestCaseFetcher interface {
	Fetch(ctx context.Context, problemID string) ([]model.TestCase, error)
}

// FileResolver reads the content a remote test case points at.
type FileResolver interface {
	ReadFile(ctx context.Context, path string) (string, error)
}

// SandboxRunner executes one program against one input.
type SandboxRunner interface {
	Run(ctx context.Context, language, sourceCode, stdin string, timeout time.Duration, memoryBytes int64) (*Outcome, error)
}

// Outcome mirrors internal/sandbox.Outcome; the processor depends on
// this local shape so it does not need to import the sandbox package
// directly, keeping SandboxRunner trivially fakeable in tests.
type Outcome struct {
	Verdict     string
	Stdout      string
	RuntimeMs   float64
	MemoryBytes int64
}

// Processor implements the Job Processor.
type Processor struct {
	queue        Queue
	store        Store
	testCases    TestCaseFetcher
	files        FileResolver
	sandbox      SandboxRunner
	queueKey     string
	log          *logging.Logger
	metrics      *metrics.Registry
	defaultTime  int
	defaultMemMB int
}

// New builds a Processor wired to its collaborators. defaultTimeMs and
// defaultMemoryMB back markRunning's fallback limits when a Submission
// can't be loaded, so an operator's configured defaults govern that
// fallback instead of a value baked into this package.
func New(queue Queue, store Store, testCases TestCaseFetcher, files FileResolver, sandbox SandboxRunner, queueKey string, log *logging.Logger, reg *metrics.Registry, defaultTimeMs, defaultMemoryMB int) *Processor {
	return &Processor{
		queue:        queue,
		store:        store,
		testCases:    testCases,
		files:        files,
		sandbox:      sandbox,
		queueKey:     queueKey,
		log:          log,
		metrics:      reg,
		defaultTime:  defaultTimeMs,
		defaultMemMB: defaultMemoryMB,
	}
}

// ProcessOne blocks for the next job, then runs it through all six
// stages. It returns a non-nil error only for conditions the Worker
// Loop should log and treat as a single dropped/failed iteration.
func (p *Processor) ProcessOne(ctx context.Context) error {
	raw, err := p.queue.BlockingPop(ctx, p.queueKey)
	if err != nil {
		p.metrics.QueuePopFailures.Inc()
		return fmt.Errorf("claim: %w", err)
	}

	var job model.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		p.log.Error("malformed job payload, dropping", map[string]any{"error": err.Error()})
		return nil
	}

	p.metrics.JobsClaimedTotal.Inc()
	traceID := uuid.New().String()
	p.log.With(job.SubmissionID).Info("job claimed", map[string]any{"trace_id": traceID, "problem_id": job.ProblemID, "language": job.Language})

	sub, err := p.markRunning(ctx, job)
	if err != nil {
		p.log.With(job.SubmissionID).Warn("mark-running failed, continuing", map[string]any{"error": err.Error()})
	}

	tests, err := p.testCases.Fetch(ctx, job.ProblemID)
	if err != nil {
		p.metrics.FetchFailuresTotal.Inc()
		return p.failFetch(ctx, job, sub, err)
	}

	timeLimit := time.Duration(sub.TimeLimitMs) * time.Millisecond
	memoryLimit := sub.MemoryLimitB

	details := make([]model.TestDetail, 0, len(tests))
	for _, tc := range tests {
		detail := p.runOne(ctx, job, tc, timeLimit, memoryLimit)
		details = append(details, detail)
		if detail.Status == model.TestFailed {
			break
		}
	}

	return p.persistTerminal(ctx, job, sub, tests, details)
}

// markRunning is stage 2. A missing Submission is logged, not fatal;
// the fallback Submission returned carries the configured default
// limits so stage 4 still has something to run against.
func (p *Processor) markRunning(ctx context.Context, job model.Job) (*model.Submission, error) {
	sub, err := p.store.FindSubmission(ctx, job.SubmissionID)
	if err != nil {
		return &model.Submission{ID: job.SubmissionID, TimeLimitMs: p.defaultTime, MemoryLimitB: int64(p.defaultMemMB) * 1024 * 1024}, err
	}

	sub.Status = model.StatusRunning
	sub.UpdatedAt = time.Now()
	if err := p.store.Save(ctx, sub); err != nil {
		p.metrics.StoreSaveFailures.Inc()
		return sub, err
	}

	p.publishStatus(ctx, job.SubmissionID, model.StatusRunning)
	return sub, nil
}

// failFetch is stage 3's failure branch. It mutates the fullest
// Submission document available (a fresh reload, falling back to the
// one markRunning already loaded) rather than replacing it outright,
// since Store.Save is a whole-document write and a bare
// {ID, Status, ...} submission would wipe every other persisted field.
func (p *Processor) failFetch(ctx context.Context, job model.Job, loaded *model.Submission, fetchErr error) error {
	errMsg := fmt.Sprintf("Could not fetch test cases: %v", fetchErr)
	detail := model.TestDetail{
		TestCaseID:   "fetch_error",
		Verdict:      model.VerdictFetchError,
		Status:       model.TestFailed,
		ErrorMessage: &errMsg,
	}

	sub, err := p.store.FindSubmission(ctx, job.SubmissionID)
	if err != nil {
		sub = loaded
	}
	if sub == nil {
		sub = &model.Submission{ID: job.SubmissionID}
	}

	now := time.Now()
	sub.Status = model.StatusFailed
	sub.UpdatedAt = now
	sub.CompletedAt = &now
	sub.Result = &model.SubmissionResult{TestDetails: []model.TestDetail{detail}}

	if err := p.store.Save(ctx, sub); err != nil {
		p.metrics.StoreSaveFailures.Inc()
		return fmt.Errorf("fetch tests: %w (and failed to persist terminal state: %v)", fetchErr, err)
	}
	p.metrics.JobsFailedTotal.Inc()
	p.publishStatus(ctx, job.SubmissionID, model.StatusFailed)
	return nil
}

// runOne is one iteration of stage 4.
func (p *Processor) runOne(ctx context.Context, job model.Job, tc model.TestCase, timeLimit time.Duration, memoryLimit int64) model.TestDetail {
	input, expected := p.materialize(ctx, tc)

	outcome, err := p.sandbox.Run(ctx, job.Language, job.SourceCode, input, timeLimit, memoryLimit)
	if err != nil {
		msg := err.Error()
		p.metrics.VerdictTotal.WithLabelValues(string(model.VerdictRuntimeError)).Inc()
		return model.TestDetail{
			TestCaseID:   tc.CaseID,
			Verdict:      model.VerdictRuntimeError,
			Status:       model.TestFailed,
			ErrorMessage: &msg,
		}
	}

	p.metrics.VerdictTotal.WithLabelValues(outcome.Verdict).Inc()
	p.metrics.ExecutionTimeMs.Observe(outcome.RuntimeMs)
	p.metrics.ExecutionMemoryByte.Observe(float64(outcome.MemoryBytes))

	passed := outcome.Verdict == string(model.VerdictOK) && strings.TrimSpace(outcome.Stdout) == strings.TrimSpace(expected)
	status := model.TestFailed
	if passed {
		status = model.TestPassed
	}

	return model.TestDetail{
		TestCaseID:  tc.CaseID,
		Verdict:     model.Verdict(outcome.Verdict),
		Status:      status,
		Stdout:      outcome.Stdout,
		RuntimeMs:   outcome.RuntimeMs,
		MemoryBytes: outcome.MemoryBytes,
	}
}

// materialize resolves a TestCase's input/expected output, inline or
// remote. A read failure for a remote file yields empty content and
// does not abort the test loop.
func (p *Processor) materialize(ctx context.Context, tc model.TestCase) (input, expected string) {
	if !tc.IsRemote {
		return tc.Input, tc.ExpectedOutput
	}

	in, err := p.files.ReadFile(ctx, tc.InputPath)
	if err != nil {
		p.log.Warn("failed to read remote test input", map[string]any{"path": tc.InputPath, "error": err.Error()})
	}
	out, err := p.files.ReadFile(ctx, tc.OutputPath)
	if err != nil {
		p.log.Warn("failed to read remote test output", map[string]any{"path": tc.OutputPath, "error": err.Error()})
	}
	return in, out
}

// persistTerminal is stages 5 and 6 combined. loaded is the Submission
// markRunning already fetched, used as a fallback base when the reload
// here fails, so a reload hiccup can't wipe the document's other fields
// the way a bare {ID} Submission would.
func (p *Processor) persistTerminal(ctx context.Context, job model.Job, loaded *model.Submission, tests []model.TestCase, details []model.TestDetail) error {
	result := aggregate(tests, details)
	finalStatus := model.StatusSuccess
	if result.PassedTests != result.TotalTests {
		finalStatus = model.StatusFailed
	}

	sub, err := p.store.FindSubmission(ctx, job.SubmissionID)
	if err != nil {
		sub = loaded
	}
	if sub == nil {
		sub = &model.Submission{ID: job.SubmissionID}
	}

	now := time.Now()
	sub.Status = finalStatus
	sub.Result = result
	sub.CompletedAt = &now
	sub.UpdatedAt = now

	if err := p.store.Save(ctx, sub); err != nil {
		p.metrics.StoreSaveFailures.Inc()
		return fmt.Errorf("persist terminal state: %w", err)
	}

	if finalStatus == model.StatusSuccess {
		p.metrics.JobsSucceededTotal.Inc()
	} else {
		p.metrics.JobsFailedTotal.Inc()
	}

	p.publishStatus(ctx, job.SubmissionID, finalStatus)
	return nil
}

// aggregate is stage 5's pure computation, split out for direct unit
// testing without a fake store/queue.
func aggregate(tests []model.TestCase, details []model.TestDetail) *model.SubmissionResult {
	result := &model.SubmissionResult{
		TotalTests:  len(tests),
		TestDetails: details,
	}

	for _, d := range details {
		if d.Status == model.TestPassed {
			result.PassedTests++
		}
		if d.RuntimeMs > result.MaxRuntimeMs {
			result.MaxRuntimeMs = d.RuntimeMs
		}
		if d.MemoryBytes > result.MaxMemoryBytes {
			result.MaxMemoryBytes = d.MemoryBytes
		}
	}

	return result
}

func (p *Processor) publishStatus(ctx context.Context, submissionID string, status model.SubmissionStatus) {
	payload, err := json.Marshal(model.StatusEvent{Status: status})
	if err != nil {
		p.log.With(submissionID).Error("failed to marshal status event", map[string]any{"error": err.Error()})
		return
	}
	if err := p.queue.Publish(ctx, submissionID, payload); err != nil {
		p.log.With(submissionID).Warn("failed to publish status event", map[string]any{"error": err.Error()})
	}
}
