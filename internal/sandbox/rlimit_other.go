//go:build !linux

package sandbox

import "os/exec"

// applyMemoryRlimit is a no-op outside Linux. readRSS has no
// implementation on these platforms either, so the RSS monitor never
// kills the child; the only memory check left is the stderr marker scan
// in classify.
func applyMemoryRlimit(cmd *exec.Cmd, limitBytes int64) {}
