// Copyright (c) 2025, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"os/exec"
	"syscall"
)

func killCommandOnTestExit(cmd *exec.Cmd) {
	// It's easy to let an external shell hang by accident.
	// In those cases, kill it as soon as the Go test process finishes.
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Pdeathsig: syscall.SIGKILL,
		Setpgid:   true,
	}
}
