package cmd

import (
	"errors"
	"os/exec"
)

// ExitCode maps an Execute error to the process exit code. Failures of the
// wrapped CLIs keep their original exit code; everything else is 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}

	return 1
}
