package cmd

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/eculver/aws-session/pkg/config"
)

func TestRunTunnel(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		spec       config.Tunnel
		runFunc    func(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) error
		wantErr    string
		wantCalls  int
		wantArgs   []string
		wantStderr string
	}{
		{
			name:       "forwards the configured service",
			spec:       config.Tunnel{Service: "db-proxy", Namespace: "apps", LocalPort: 3306, RemotePort: 3306},
			wantCalls:  1,
			wantArgs:   []string{"port-forward", "svc/db-proxy", "-n", "apps", "3306:3306"},
			wantStderr: "Forwarding localhost:3306 to svc/db-proxy:3306 in apps (Ctrl-C to stop)...",
		},
		{
			name:      "local and remote ports can differ",
			spec:      config.Tunnel{Service: "db-proxy", Namespace: "apps", LocalPort: 13306, RemotePort: 3306},
			wantCalls: 1,
			wantArgs:  []string{"port-forward", "svc/db-proxy", "-n", "apps", "13306:3306"},
		},
		{
			name:    "requires a service",
			spec:    config.Tunnel{Namespace: "apps", LocalPort: 3306, RemotePort: 3306},
			wantErr: "a service is required",
		},
		{
			name:    "requires a namespace",
			spec:    config.Tunnel{Service: "db-proxy", LocalPort: 3306, RemotePort: 3306},
			wantErr: "a namespace is required",
		},
		{
			name:    "requires a local port",
			spec:    config.Tunnel{Service: "db-proxy", Namespace: "apps", RemotePort: 3306},
			wantErr: "a local port is required",
		},
		{
			name: "wraps kubectl failures",
			spec: config.Tunnel{Service: "db-proxy", Namespace: "apps", LocalPort: 3306, RemotePort: 3306},
			runFunc: func(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) error {
				return errors.New("connection refused")
			},
			wantErr:   "kubectl port-forward failed: connection refused",
			wantCalls: 1,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			state := &cmdState{}
			executor := &fakeExecutor{runFunc: tc.runFunc}
			deps := testRunDeps(state)
			deps.executor = executor

			err := runTunnel(context.Background(), tc.spec, deps)

			if tc.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q but got nil", tc.wantErr)
				}
				if !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(executor.calls) != tc.wantCalls {
				t.Fatalf("expected %d executor calls, got %d", tc.wantCalls, len(executor.calls))
			}
			if tc.wantCalls > 0 {
				if executor.calls[0].name != "kubectl" {
					t.Fatalf("expected kubectl, got %q", executor.calls[0].name)
				}
				if tc.wantArgs != nil && strings.Join(executor.calls[0].args, "|") != strings.Join(tc.wantArgs, "|") {
					t.Fatalf("unexpected args: got %v want %v", executor.calls[0].args, tc.wantArgs)
				}
			}
			if tc.wantStderr != "" && !strings.Contains(state.stderr.String(), tc.wantStderr) {
				t.Fatalf("expected stderr containing %q, got: %q", tc.wantStderr, state.stderr.String())
			}
		})
	}
}

// Interrupting an open tunnel is a normal shutdown, not a failure.
func TestRunTunnelCleanShutdown(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	state := &cmdState{}
	executor := &fakeExecutor{
		runFunc: func(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) error {
			cancel()
			<-ctx.Done()
			return errors.New("signal: interrupt")
		},
	}
	deps := testRunDeps(state)
	deps.executor = executor

	if err := runTunnel(ctx, config.Tunnel{Service: "db-proxy", Namespace: "apps", LocalPort: 3306, RemotePort: 3306}, deps); err != nil {
		t.Fatalf("expected interrupted tunnel to exit cleanly, got %v", err)
	}
}

func TestTunnelCmdResolution(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		args     []string
		config   func() *config.Config
		wantArgs []string
	}{
		{
			name:     "uses the environment's tunnel config",
			args:     []string{"tunnel", "--env", "dev"},
			config:   testConfig,
			wantArgs: []string{"port-forward", "svc/db-proxy", "-n", "apps", "3306:3306"},
		},
		{
			name:     "flags override the config",
			args:     []string{"tunnel", "--env", "dev", "--service", "pgbouncer", "--local-port", "9000"},
			config:   testConfig,
			wantArgs: []string{"port-forward", "svc/pgbouncer", "-n", "apps", "9000:3306"},
		},
		{
			name: "falls back to the environment namespace and database port",
			args: []string{"tunnel", "--env", "dev"},
			config: func() *config.Config {
				cfg := testConfig()
				env := cfg.Environments["dev"]
				env.Tunnel = config.Tunnel{Service: "db-proxy", LocalPort: 13306}
				cfg.Environments["dev"] = env
				return cfg
			},
			wantArgs: []string{"port-forward", "svc/db-proxy", "-n", "apps", "13306:3306"},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			state := &cmdState{}
			executor := &fakeExecutor{}
			deps := testRunDeps(state)
			deps.executor = executor
			deps.loadConfig = func(path string) (*config.Config, error) { return tc.config(), nil }

			root := newRootCmd(deps)
			root.SetArgs(tc.args)
			root.SetOut(&state.stdout)
			root.SetErr(&state.stderr)

			if err := root.Execute(); err != nil {
				t.Fatalf("unexpected execute error: %v", err)
			}

			if len(executor.calls) != 1 {
				t.Fatalf("expected 1 executor call, got %d", len(executor.calls))
			}
			if strings.Join(executor.calls[0].args, "|") != strings.Join(tc.wantArgs, "|") {
				t.Fatalf("unexpected args: got %v want %v", executor.calls[0].args, tc.wantArgs)
			}
		})
	}
}
