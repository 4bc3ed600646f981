package cmd

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newEnvsCmd(opts *rootOptions, deps runDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "envs",
		Short: "List configured environments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvs(opts, deps)
		},
	}
}

func runEnvs(opts *rootOptions, deps runDeps) error {
	if opts.cfg == nil || len(opts.cfg.Environments) == 0 {
		fmt.Fprintln(deps.stdout, "No environments configured")
		return nil
	}

	names := make([]string, 0, len(opts.cfg.Environments))
	for name := range opts.cfg.Environments {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(deps.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPROFILE\tCLUSTER\tREGION\tDATABASE")

	for _, name := range names {
		env := opts.cfg.Environments[name]

		display := name
		if name == opts.cfg.DefaultEnv {
			display += " *"
		}

		database := ""
		if env.Database.Host != "" {
			database = fmt.Sprintf("%s:%d", env.Database.Host, env.Database.Port)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", display, env.Profile, env.Cluster, env.Region, database)
	}

	return w.Flush()
}
