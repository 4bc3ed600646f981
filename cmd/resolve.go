package cmd

import (
	"fmt"
	"os"

	"github.com/eculver/aws-session/pkg/config"
	"github.com/spf13/cobra"
)

// targetFlags holds the per-command overrides for a session target.
type targetFlags struct {
	profile string
	cluster string
	region  string
	dbHost  string
	dbPort  int
	dbUser  string
}

func addTargetFlags(cmd *cobra.Command, flags *targetFlags) {
	cmd.Flags().StringVarP(&flags.profile, "profile", "p", "", "AWS profile to use (defaults to AWS_PROFILE env var)")
	cmd.Flags().StringVar(&flags.cluster, "cluster", "", "EKS cluster name")
	cmd.Flags().StringVar(&flags.region, "region", "", "AWS region for the database endpoint")
	cmd.Flags().StringVar(&flags.dbHost, "db-host", "", "database hostname")
	cmd.Flags().IntVar(&flags.dbPort, "db-port", 0, "database port (default 3306)")
	cmd.Flags().StringVar(&flags.dbUser, "db-user", "", "database IAM username")
}

// sessionTarget is the fully resolved set of parameters a command operates
// on: the selected environment's fields overlaid with flag overrides and
// ambient environment variables.
type sessionTarget struct {
	envName   string
	profile   string
	cluster   string
	region    string
	namespace string
	database  config.Database
	tunnel    config.Tunnel
	logs      config.Logs
}

// resolveTarget applies, in order of precedence: command flags, the selected
// environment from config, then ambient environment variables.
func resolveTarget(opts *rootOptions, flags targetFlags) (sessionTarget, error) {
	var tgt sessionTarget

	envName := opts.envName
	if envName == "" && opts.cfg != nil {
		envName = opts.cfg.DefaultEnv
	}

	if envName != "" {
		if opts.cfg == nil {
			return sessionTarget{}, fmt.Errorf("environment %q requested but no config file was found", envName)
		}
		env, ok := opts.cfg.Environments[envName]
		if !ok {
			return sessionTarget{}, fmt.Errorf("environment %q is not configured", envName)
		}
		tgt = sessionTarget{
			envName:   envName,
			profile:   env.Profile,
			cluster:   env.Cluster,
			region:    env.Region,
			namespace: env.Namespace,
			database:  env.Database,
			tunnel:    env.Tunnel,
			logs:      env.Logs,
		}
	}

	if flags.profile != "" {
		tgt.profile = flags.profile
	}
	if flags.cluster != "" {
		tgt.cluster = flags.cluster
	}
	if flags.region != "" {
		tgt.region = flags.region
	}
	if flags.dbHost != "" {
		tgt.database.Host = flags.dbHost
	}
	if flags.dbPort != 0 {
		tgt.database.Port = flags.dbPort
	}
	if flags.dbUser != "" {
		tgt.database.Username = flags.dbUser
	}

	if tgt.profile == "" {
		tgt.profile = os.Getenv("AWS_PROFILE")
	}
	if tgt.database.Port == 0 {
		tgt.database.Port = config.DefaultDBPort
	}

	return tgt, nil
}

func (t sessionTarget) requireCluster() error {
	if t.cluster == "" {
		return fmt.Errorf("an EKS cluster is required: set --cluster or configure one for the environment")
	}
	return nil
}

func (t sessionTarget) requireDatabase() error {
	if t.database.Host == "" {
		return fmt.Errorf("a database host is required: set --db-host or configure one for the environment")
	}
	if t.database.Username == "" {
		return fmt.Errorf("a database username is required: set --db-user or configure one for the environment")
	}
	return nil
}

func (t sessionTarget) requireRegion() error {
	if t.region == "" {
		return fmt.Errorf("a region is required: set --region or configure one for the environment")
	}
	return nil
}
