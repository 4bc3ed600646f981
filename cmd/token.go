package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newTokenCmd(opts *rootOptions, deps runDeps) *cobra.Command {
	var flags targetFlags

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a fresh RDS IAM auth token",
		Long: `Signs a database auth token in process with the AWS SDK, skipping the
bootstrap steps 'up' performs. Use it to refresh an expired token for an
already bootstrapped session:

  mysql -h "$DB_HOST" -u "$DB_USER" --enable-cleartext-plugin -p"$(aws-session token)"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tgt, err := resolveTarget(opts, flags)
			if err != nil {
				return err
			}
			return runToken(cmd.Context(), tgt, deps)
		},
	}

	addTargetFlags(cmd, &flags)

	return cmd
}

func runToken(ctx context.Context, tgt sessionTarget, deps runDeps) error {
	if err := tgt.requireDatabase(); err != nil {
		return err
	}
	if err := tgt.requireRegion(); err != nil {
		return err
	}

	token, err := deps.awsService.BuildDBAuthToken(ctx, tgt.profile, tgt.region, tgt.database.Host, tgt.database.Port, tgt.database.Username)
	if err != nil {
		return err
	}

	fmt.Fprintln(deps.stdout, token)

	if deps.isTerminal(deps.stdout) {
		fmt.Fprintln(deps.stderr, "The token is valid for 15 minutes.")
	}

	return nil
}
