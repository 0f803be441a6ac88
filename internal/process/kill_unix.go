//go:build !windows

// Package process terminates browser process trees left by diagram rendering.
package process

import "syscall"

// KillProcessGroup sends SIGKILL to the process group led by pid, taking any
// renderer and GPU helpers down with the browser. Non-positive PIDs are
// ignored so the caller's own group is never signalled.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
