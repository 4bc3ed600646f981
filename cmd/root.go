package cmd

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	awslib "github.com/eculver/aws-session/pkg/aws"
	"github.com/eculver/aws-session/pkg/config"
	"github.com/eculver/aws-session/pkg/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const sessionDuration = 43200 // 12 hours (max for GetSessionToken)

// stepTimeout bounds each non-interactive AWS CLI step. SSO login is exempt
// because it waits on the operator completing the browser flow.
const stepTimeout = 60 * time.Second

// Executor abstracts command execution for easier testing.
type Executor interface {
	Run(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) error
}

type osExecutor struct{}

func (osExecutor) Run(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) error {
	cliCmd := exec.CommandContext(ctx, name, args...)
	cliCmd.Stdin = stdin
	cliCmd.Stdout = stdout
	cliCmd.Stderr = stderr
	// Interrupt first so children like kubectl can clean up; the WaitDelay
	// kill covers the ones that ignore it.
	cliCmd.Cancel = func() error {
		return cliCmd.Process.Signal(os.Interrupt)
	}
	cliCmd.WaitDelay = 5 * time.Second
	return cliCmd.Run()
}

type runDeps struct {
	awsService      awslib.Service
	prober          awslib.EndpointProber
	executor        Executor
	loadConfig      func(path string) (*config.Config, error)
	initLog         func(opts log.Options) error
	login           func(ctx context.Context, profile string) error
	isTerminal      func(w io.Writer) bool
	stdin           io.Reader
	stdout          io.Writer
	stderr          io.Writer
	sessionDuration int32
	stepTimeout     time.Duration
}

// rootOptions holds persistent flag values and the loaded config, shared by
// every subcommand.
type rootOptions struct {
	configPath string
	envName    string
	verbose    bool
	jsonLog    bool

	cfg *config.Config
}

// NewRootCmd creates the root CLI command.
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultRunDeps())
}

func newRootCmd(deps runDeps) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "aws-session",
		Short: "Bootstrap an AWS SSO session with EKS and RDS access",
		Long: `aws-session wraps the daily ritual of getting into an AWS environment:
SSO login, kubeconfig refresh for the environment's EKS cluster, and an IAM
auth token for its RDS database. Targets are named environments from
~/.aws-session/config.yaml, with flags to override any field ad hoc.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Resolve environment: --env flag > AWS_SESSION_ENV env var
			if opts.envName == "" {
				opts.envName = os.Getenv("AWS_SESSION_ENV")
			}

			cfg, err := deps.loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg

			var debugCfg config.DebugConfig
			if cfg != nil {
				debugCfg = cfg.Debug
			}
			debugDir := debugCfg.Dir
			if debugDir == "" {
				debugDir = filepath.Join(config.Dir(), "debug")
			}
			retention := debugCfg.RetentionDays
			if retention == 0 {
				retention = config.DefaultRetentionDays
			}

			if err := deps.initLog(log.Options{
				Verbose:       opts.verbose,
				JSONFormat:    opts.jsonLog,
				DebugDir:      debugDir,
				RetentionDays: retention,
				Stderr:        deps.stderr,
			}); err != nil {
				// Log init failure is non-fatal - fall back to the default logger
				cmd.PrintErrf("Warning: failed to initialize debug logging: %v\n", err)
			}

			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to the config file (default ~/.aws-session/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&opts.envName, "env", "e", "", "environment to target (env: AWS_SESSION_ENV)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&opts.jsonLog, "json", false, "write logs in JSON format")

	rootCmd.AddCommand(
		newUpCmd(opts, deps),
		newStatusCmd(opts, deps),
		newTokenCmd(opts, deps),
		newCredsCmd(opts, deps),
		newTunnelCmd(opts, deps),
		newLogsCmd(opts, deps),
		newEnvsCmd(opts, deps),
		newVersionCmd(),
	)

	return rootCmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func defaultRunDeps() runDeps {
	deps := runDeps{
		awsService:      awslib.NewService(),
		prober:          awslib.NewClusterProber(),
		executor:        osExecutor{},
		loadConfig:      config.Load,
		initLog:         log.Init,
		isTerminal:      writerIsTerminal,
		stdin:           os.Stdin,
		stdout:          os.Stdout,
		stderr:          os.Stderr,
		sessionDuration: sessionDuration,
		stepTimeout:     stepTimeout,
	}

	deps.login = func(ctx context.Context, profile string) error {
		return ssoLogin(ctx, profile, deps)
	}

	return deps
}

// ssoLogin shells out to the AWS CLI to perform an SSO login. The child's
// output goes to stderr so callers can keep stdout machine-readable.
func ssoLogin(ctx context.Context, profile string, deps runDeps) error {
	return deps.executor.Run(ctx, "aws", ssoLoginArgs(profile), deps.stdin, deps.stderr, deps.stderr)
}

func writerIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
