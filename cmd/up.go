package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/eculver/aws-session/pkg/log"
	"github.com/spf13/cobra"
)

func newUpCmd(opts *rootOptions, deps runDeps) *cobra.Command {
	var flags targetFlags

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Bootstrap SSO, kubeconfig and a DB auth token for an environment",
		Long: `Runs the bootstrap steps in order: 'aws sso login', 'aws eks
update-kubeconfig' for the environment's cluster, then 'aws rds
generate-db-auth-token' for its database. Only the DB auth token is written
to stdout, so the output can feed a client directly:

  mysql -h "$DB_HOST" -u "$DB_USER" --enable-cleartext-plugin -p"$(aws-session up)"

A failed step aborts the run; nothing later runs on a stale session. Port
forwarding is a separate command, see 'aws-session tunnel'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tgt, err := resolveTarget(opts, flags)
			if err != nil {
				return err
			}
			return runUp(cmd.Context(), tgt, deps)
		},
	}

	addTargetFlags(cmd, &flags)

	return cmd
}

func runUp(ctx context.Context, tgt sessionTarget, deps runDeps) error {
	if err := tgt.requireCluster(); err != nil {
		return err
	}
	if err := tgt.requireDatabase(); err != nil {
		return err
	}
	if err := tgt.requireRegion(); err != nil {
		return err
	}

	fmt.Fprintln(deps.stderr, "Logging in with SSO...")
	watcher := newLoginWatcher(deps.stderr)
	if err := deps.executor.Run(ctx, "aws", ssoLoginArgs(tgt.profile), deps.stdin, watcher, watcher); err != nil {
		return fmt.Errorf("aws sso login failed: %w", err)
	}
	watcher.flush()

	identity, err := deps.awsService.GetCallerIdentity(ctx, tgt.profile)
	if err != nil {
		return fmt.Errorf("credentials still invalid after SSO login: %w", err)
	}
	fmt.Fprintf(deps.stderr, "Authenticated as: %s\n", identity.Arn)

	fmt.Fprintf(deps.stderr, "Updating kubeconfig for cluster %s...\n", tgt.cluster)
	if err := runStep(ctx, deps, "aws eks update-kubeconfig", "aws", updateKubeconfigArgs(tgt.profile, tgt.cluster), deps.stderr); err != nil {
		return err
	}

	fmt.Fprintf(deps.stderr, "Generating DB auth token for %s@%s:%d...\n", tgt.database.Username, tgt.database.Host, tgt.database.Port)
	if err := runStep(ctx, deps, "aws rds generate-db-auth-token", "aws", dbAuthTokenArgs(tgt), deps.stdout); err != nil {
		return err
	}

	if deps.isTerminal(deps.stdout) {
		fmt.Fprintln(deps.stderr, "The token is valid for 15 minutes.")
	}

	return nil
}

// runStep runs one bounded CLI step, attributing failures to the step name.
// Step stdout goes to the given writer; only the token step points it at the
// process stdout.
func runStep(ctx context.Context, deps runDeps, label, name string, args []string, stdout io.Writer) error {
	stepCtx, cancel := context.WithTimeout(ctx, deps.stepTimeout)
	defer cancel()

	err := deps.executor.Run(stepCtx, name, args, deps.stdin, stdout, deps.stderr)
	if err == nil {
		return nil
	}
	if errors.Is(stepCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s timed out after %s (Uhm... VPN on ?)", label, deps.stepTimeout)
	}
	return fmt.Errorf("%s failed: %w", label, err)
}

func ssoLoginArgs(profile string) []string {
	args := []string{"sso", "login"}
	if profile != "" {
		args = append(args, "--profile", profile)
	}
	return args
}

func updateKubeconfigArgs(profile, cluster string) []string {
	args := []string{"eks"}
	if profile != "" {
		args = append(args, "--profile", profile)
	}
	return append(args, "update-kubeconfig", "--name", cluster)
}

func dbAuthTokenArgs(tgt sessionTarget) []string {
	args := []string{"rds", "generate-db-auth-token"}
	if tgt.profile != "" {
		args = append(args, "--profile", tgt.profile)
	}
	return append(args,
		"--hostname", tgt.database.Host,
		"--port", strconv.Itoa(tgt.database.Port),
		"--region", tgt.region,
		"--username", tgt.database.Username,
	)
}

// ssoCodePattern matches the user verification code the AWS CLI prints
// during the SSO device flow.
var ssoCodePattern = regexp.MustCompile(`[A-Za-z]{4}-[A-Za-z]{4}`)

// loginWatcher tees SSO login output to dst while scanning it line by line
// for the device verification code and the success marker.
type loginWatcher struct {
	dst io.Writer
	buf bytes.Buffer

	code     string
	loggedIn bool
}

func newLoginWatcher(dst io.Writer) *loginWatcher {
	return &loginWatcher{dst: dst}
}

func (w *loginWatcher) Write(p []byte) (int, error) {
	n, err := w.dst.Write(p)
	if n > 0 {
		w.buf.Write(p[:n])
	}

	for {
		line, readErr := w.buf.ReadString('\n')
		if readErr != nil {
			// Partial line; keep it for the next write.
			w.buf.WriteString(line)
			break
		}
		w.scan(line)
	}

	return n, err
}

// flush scans whatever is left once the child has exited.
func (w *loginWatcher) flush() {
	if w.buf.Len() == 0 {
		return
	}
	w.scan(w.buf.String())
	w.buf.Reset()
}

func (w *loginWatcher) scan(line string) {
	if w.code == "" {
		if code := ssoCodePattern.FindString(line); code != "" {
			w.code = code
			log.Debug("sso verification code issued", "code", code)
		}
	}
	if !w.loggedIn && strings.Contains(line, "Successfully") {
		w.loggedIn = true
		log.Debug("sso login confirmed")
	}
}
