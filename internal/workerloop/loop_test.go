package workerloop

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"judgeworker/internal/logging"
	"judgeworker/internal/metrics"
)

type countingProcessor struct {
	calls   atomic.Int64
	failNth int
}

func (c *countingProcessor) ProcessOne(ctx context.Context) error {
	n := c.calls.Add(1)
	if c.failNth > 0 && int(n) == c.failNth {
		return errTest
	}
	return nil
}

var errTest = &testError{"synthetic job failure"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }

func TestRunProcessesUntilCancelled(t *testing.T) {
	proc := &countingProcessor{failNth: 3}
	log := logging.New("test", logging.ERROR+1, io.Discard)
	m := metrics.New()
	loop := New(proc, log, m, 20*time.Millisecond, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after cancellation")
	}

	require.GreaterOrEqual(t, proc.calls.Load(), int64(3))
}

func TestReportHealthMarksStaleAfterInactivity(t *testing.T) {
	proc := &countingProcessor{}
	log := logging.New("test", logging.ERROR+1, io.Discard)
	m := metrics.New()
	loop := New(proc, log, m, time.Hour, 10*time.Millisecond)
	loop.lastHeartbeat = time.Now().Add(-time.Minute)

	loop.reportHealth()

	require.Equal(t, float64(0), testutil.ToFloat64(m.WorkerHealthGauge))
}
