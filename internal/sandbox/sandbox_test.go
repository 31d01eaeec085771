package sandbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunUnsupportedLanguage(t *testing.T) {
	r := New()
	out, err := r.Run(context.Background(), "brainfuck", "", "", time.Second, 64*1024*1024)
	require.NoError(t, err)
	require.Equal(t, VerdictUnsupportedLanguage, out.Verdict)
}

func TestRunPythonEchoesStdin(t *testing.T) {
	r := New()
	src := "import sys\nsys.stdout.write(sys.stdin.read())\n"
	out, err := r.Run(context.Background(), "python", src, "hello\n", 5*time.Second, 64*1024*1024)
	require.NoError(t, err)
	require.Equal(t, VerdictOK, out.Verdict)
	require.Equal(t, "hello", out.Stdout)
}

func TestRunPythonNonZeroExitIsRuntimeError(t *testing.T) {
	r := New()
	src := "import sys\nsys.exit(1)\n"
	out, err := r.Run(context.Background(), "python", src, "", 5*time.Second, 64*1024*1024)
	require.NoError(t, err)
	require.Equal(t, VerdictRuntimeError, out.Verdict)
}

func TestRunPythonInfiniteLoopTimesOut(t *testing.T) {
	r := New()
	src := "while True:\n    pass\n"
	out, err := r.Run(context.Background(), "python", src, "", 300*time.Millisecond, 64*1024*1024)
	require.NoError(t, err)
	require.Equal(t, VerdictTimeLimitExceeded, out.Verdict)
	require.Greater(t, out.RuntimeMs, float64(0))
}

func TestRunCppCompileErrorSurfacesCompilerMsg(t *testing.T) {
	r := New()
	src := "int main() { return \n"
	out, err := r.Run(context.Background(), "cpp", src, "", 5*time.Second, 64*1024*1024)
	require.NoError(t, err)
	require.Equal(t, VerdictCompilationError, out.Verdict)
	require.NotEmpty(t, out.CompilerMsg)
}

func TestClassifyDetectsMemoryMarkerBeforeExitCode(t *testing.T) {
	out := classify(errors.New("exit status 1"), "", "fatal: std::bad_alloc thrown", time.Second, 123)
	require.Equal(t, VerdictMemoryLimitExceeded, out.Verdict)
	require.Equal(t, int64(123), out.MemoryBytes)
}

func TestClassifyTrimsStdoutOnSuccess(t *testing.T) {
	out := classify(nil, "  hi there  \n", "", time.Second, 0)
	require.Equal(t, VerdictOK, out.Verdict)
	require.Equal(t, "hi there", out.Stdout)
}
