package judge

import (
	"context"
	"time"

	"judgeworker/internal/sandbox"
)

// SandboxAdapter adapts *sandbox.Runner to the Processor's SandboxRunner
// interface, keeping the judge package's public surface independent of
// the sandbox package's concrete Outcome/Verdict types.
type SandboxAdapter struct {
	runner *sandbox.Runner
}

// NewSandboxAdapter wraps a sandbox.Runner for use by a Processor.
func NewSandboxAdapter(runner *sandbox.Runner) *SandboxAdapter {
	return &SandboxAdapter{runner: runner}
}

func (a *SandboxAdapter) Run(ctx context.Context, language, sourceCode, stdin string, timeout time.Duration, memoryBytes int64) (*Outcome, error) {
	out, err := a.runner.Run(ctx, language, sourceCode, stdin, timeout, memoryBytes)
	if err != nil {
		return nil, err
	}
	return &Outcome{
		Verdict:     string(out.Verdict),
		Stdout:      out.Stdout,
		RuntimeMs:   out.RuntimeMs,
		MemoryBytes: out.MemoryBytes,
	}, nil
}
