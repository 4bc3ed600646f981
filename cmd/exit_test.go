package cmd

import (
	"errors"
	"fmt"
	"os/exec"
	"testing"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	exitErr := exitErrorWithCode(t, 3)

	testCases := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil means success", err: nil, want: 0},
		{name: "plain errors map to 1", err: errors.New("boom"), want: 1},
		{name: "child exit codes pass through", err: exitErr, want: 3},
		{name: "wrapped child exit codes pass through", err: fmt.Errorf("aws eks update-kubeconfig failed: %w", exitErr), want: 3},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := ExitCode(tc.err); got != tc.want {
				t.Fatalf("ExitCode(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func exitErrorWithCode(t *testing.T, code int) *exec.ExitError {
	t.Helper()

	err := exec.Command("sh", "-c", fmt.Sprintf("exit %d", code)).Run()

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected an exit error, got %v", err)
	}
	return exitErr
}
