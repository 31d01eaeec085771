//go:build linux

package sandbox

import (
	"fmt"
	"os/exec"
	"strings"
)

// applyMemoryRlimit rewrites cmd to impose an address-space ceiling on
// the child before it execs the real program. os/exec has no hook to
// call syscall.Setrlimit between fork and exec, so the limit is set by
// a shell wrapper instead: `ulimit -v` applies RLIMIT_AS to the shell's
// own process, which then execs into the target and inherits it.
func applyMemoryRlimit(cmd *exec.Cmd, limitBytes int64) {
	limitKB := limitBytes / 1024

	args := append([]string{cmd.Path}, cmd.Args[1:]...)
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = shellQuote(a)
	}

	script := fmt.Sprintf("ulimit -v %d; exec %s", limitKB, strings.Join(quoted, " "))
	cmd.Path = "/bin/sh"
	cmd.Args = []string{"/bin/sh", "-c", script}
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
