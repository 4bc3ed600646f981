package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	awslib "github.com/eculver/aws-session/pkg/aws"
	"github.com/spf13/cobra"
)

func newCredsCmd(opts *rootOptions, deps runDeps) *cobra.Command {
	var flags targetFlags
	var format string

	cmd := &cobra.Command{
		Use:   "creds",
		Short: "Export AWS credentials for the environment's profile",
		Long: `Resolves credentials for the profile, running 'aws sso login' first when
they are missing or expired. Prints shell exports by default:

  eval "$(aws-session creds)"

With --format json the output follows the credential_process contract, so
an AWS profile can delegate to aws-session:

  credential_process = aws-session creds --env dev --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tgt, err := resolveTarget(opts, flags)
			if err != nil {
				return err
			}
			return runCreds(cmd.Context(), tgt.profile, format, deps)
		},
	}

	addTargetFlags(cmd, &flags)
	cmd.Flags().StringVarP(&format, "format", "f", "env", "output format: env or json")

	return cmd
}

func runCreds(ctx context.Context, profile, format string, deps runDeps) error {
	if format != "env" && format != "json" {
		return fmt.Errorf("unknown format %q: must be 'env' or 'json'", format)
	}

	identity, err := deps.awsService.GetCallerIdentity(ctx, profile)
	if err != nil {
		fmt.Fprintln(deps.stderr, "Credentials are not valid, attempting SSO login...")
		if loginErr := deps.login(ctx, profile); loginErr != nil {
			return fmt.Errorf("SSO login failed: %w", loginErr)
		}

		identity, err = deps.awsService.GetCallerIdentity(ctx, profile)
		if err != nil {
			return fmt.Errorf("credentials still invalid after SSO login: %w", err)
		}
	}

	fmt.Fprintf(deps.stderr, "Authenticated as: %s\n", identity.Arn)

	creds, err := deps.awsService.RetrieveCredentials(ctx, profile)
	if err != nil {
		return fmt.Errorf("failed to retrieve credentials: %w", err)
	}

	// If no session token (e.g. long-lived IAM user keys), request temporary credentials
	if creds.SessionToken == "" {
		fmt.Fprintln(deps.stderr, "No session token found, requesting temporary credentials...")
		creds, err = deps.awsService.GetSessionToken(ctx, profile, deps.sessionDuration)
		if err != nil {
			return fmt.Errorf("failed to get temporary credentials: %w", err)
		}
	}

	if format == "json" {
		return writeCredentialProcess(deps.stdout, creds)
	}

	writeExports(deps.stdout, creds)
	return nil
}

// credentialProcessOutput is the document the AWS CLI expects from a
// credential_process helper.
type credentialProcessOutput struct {
	Version         int    `json:"Version"`
	AccessKeyID     string `json:"AccessKeyId"`
	SecretAccessKey string `json:"SecretAccessKey"`
	SessionToken    string `json:"SessionToken,omitempty"`
	Expiration      string `json:"Expiration,omitempty"`
}

func writeCredentialProcess(w io.Writer, creds awslib.Credentials) error {
	out := credentialProcessOutput{
		Version:         1,
		AccessKeyID:     creds.AccessKeyID,
		SecretAccessKey: creds.SecretAccessKey,
		SessionToken:    creds.SessionToken,
	}
	if !creds.Expires.IsZero() {
		out.Expiration = creds.Expires.UTC().Format(time.RFC3339)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeExports(w io.Writer, creds awslib.Credentials) {
	fmt.Fprintf(w, "export AWS_ACCESS_KEY_ID=%s\n", creds.AccessKeyID)
	fmt.Fprintf(w, "export AWS_SECRET_ACCESS_KEY=%s\n", creds.SecretAccessKey)
	if creds.SessionToken != "" {
		fmt.Fprintf(w, "export AWS_SESSION_TOKEN=%s\n", creds.SessionToken)
	}
}
