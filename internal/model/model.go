// Package model holds the data types shared across the judge worker:
// the transient queue payload, the persisted submission document, and
// the test-case shape fetched from the content service.
package model

import "time"

// Verdict is a single-test classification. The set is closed; no other
// values are produced by the sandbox.
type Verdict string

const (
	VerdictOK                  Verdict = "OK"
	VerdictCompilationError    Verdict = "CompilationError"
	VerdictRuntimeError        Verdict = "RuntimeError"
	VerdictTimeLimitExceeded   Verdict = "TimeLimitExceeded"
	VerdictMemoryLimitExceeded Verdict = "MemoryLimitExceeded"
	VerdictUnsupportedLanguage Verdict = "UnsupportedLanguage"
	// VerdictFetchError is synthetic: it never comes out of the sandbox,
	// only out of a failed test-case fetch (stage 3 of the processor).
	VerdictFetchError Verdict = "error"
)

// SubmissionStatus is the lifecycle state of a Submission.
type SubmissionStatus string

const (
	StatusPending SubmissionStatus = "pending"
	StatusRunning SubmissionStatus = "running"
	StatusSuccess SubmissionStatus = "success"
	StatusFailed  SubmissionStatus = "failed"
)

// TestStatus is the pass/fail outcome of a single TestDetail.
type TestStatus string

const (
	TestPassed TestStatus = "passed"
	TestFailed TestStatus = "failed"
)

// Job is the transient queue payload popped from the submission queue.
type Job struct {
	SubmissionID string `json:"submissionId"`
	ProblemID    string `json:"problemId"`
	Language     string `json:"language"`
	SourceCode   string `json:"sourceCode"`
	Stdin        string `json:"stdin"`
}

// StatusEvent is published on the per-submission pub/sub channel. At
// most two of these are published for a given submission: running,
// then one of success/failed.
type StatusEvent struct {
	Status SubmissionStatus `json:"status"`
}

// TestDetail is the outcome of running one test case.
type TestDetail struct {
	TestCaseID   string     `json:"testCaseId" bson:"testCaseId"`
	Verdict      Verdict    `json:"verdict" bson:"verdict"`
	Status       TestStatus `json:"status" bson:"status"`
	Stdout       string     `json:"stdout" bson:"stdout"`
	RuntimeMs    float64    `json:"runtimeMs" bson:"runtimeMs"`
	MemoryBytes  int64      `json:"memoryBytes" bson:"memoryBytes"`
	ErrorMessage *string    `json:"errorMessage,omitempty" bson:"errorMessage,omitempty"`
}

// SubmissionResult is the aggregated outcome embedded in a Submission
// once it reaches a terminal status.
type SubmissionResult struct {
	TotalTests     int          `json:"totalTests" bson:"totalTests"`
	PassedTests    int          `json:"passedTests" bson:"passedTests"`
	MaxRuntimeMs   float64      `json:"maxRuntimeMs" bson:"maxRuntimeMs"`
	MaxMemoryBytes int64        `json:"maxMemoryBytes" bson:"maxMemoryBytes"`
	TestDetails    []TestDetail `json:"testDetails" bson:"testDetails"`
}

// Submission is the persisted document the worker claims, mutates to
// running, and finally mutates to success/failed exactly once.
type Submission struct {
	ID           string            `json:"id" bson:"_id"`
	UserID       string            `json:"userId" bson:"userId"`
	ProblemID    string            `json:"problemId" bson:"problemId"`
	Language     string            `json:"language" bson:"language"`
	SourceCode   string            `json:"sourceCode" bson:"sourceCode"`
	Stdin        string            `json:"stdin,omitempty" bson:"stdin,omitempty"`
	Status       SubmissionStatus  `json:"status" bson:"status"`
	SubmittedAt  time.Time         `json:"submittedAt" bson:"submittedAt"`
	CreatedAt    time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt" bson:"updatedAt"`
	CompletedAt  *time.Time        `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	Canceled     bool              `json:"canceled" bson:"canceled"`
	TimeLimitMs  int               `json:"timeLimitMs" bson:"timeLimitMs"`
	MemoryLimitB int64             `json:"memoryLimitB" bson:"memoryLimitB"`
	Result       *SubmissionResult `json:"result,omitempty" bson:"result,omitempty"`
}

// TestCase is the external, provider-owned per-test payload. The
// inline/remote pair is a tagged sum discriminated by IsRemote: exactly
// one of (Input, ExpectedOutput) or (InputPath, OutputPath) is populated.
type TestCase struct {
	CaseID         string `json:"caseId"`
	IsHidden       bool   `json:"isHidden"`
	IsRemote       bool   `json:"isRemote"`
	Input          string `json:"input,omitempty"`
	ExpectedOutput string `json:"expectedOutput,omitempty"`
	InputPath      string `json:"inputPath,omitempty"`
	OutputPath     string `json:"outputPath,omitempty"`
}
