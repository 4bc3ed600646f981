package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/eculver/aws-session/pkg/log"
	"github.com/spf13/cobra"
)

func newStatusCmd(opts *rootOptions, deps runDeps) *cobra.Command {
	var flags targetFlags
	var namespace string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether the session, cluster and database are reachable",
		Long: `Checks the pieces 'up' depends on without mutating anything: the caller
identity for the profile, the EKS cluster description, and the cluster
endpoint over HTTPS pinned to the cluster's own certificate authority. An
unreachable endpoint usually means the VPN is down. With --namespace the
report also lists pods there via kubectl.

Exits non-zero when any check fails, so it can gate scripts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tgt, err := resolveTarget(opts, flags)
			if err != nil {
				return err
			}
			if namespace != "" {
				tgt.namespace = namespace
			}
			return runStatus(cmd.Context(), tgt, deps)
		},
	}

	addTargetFlags(cmd, &flags)
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "also list pods in this namespace")

	return cmd
}

func runStatus(ctx context.Context, tgt sessionTarget, deps runDeps) error {
	healthy := true

	if tgt.envName != "" {
		fmt.Fprintf(deps.stdout, "Environment: %s\n", tgt.envName)
	}
	if tgt.profile != "" {
		fmt.Fprintf(deps.stdout, "Profile:     %s\n", tgt.profile)
	}

	identity, err := deps.awsService.GetCallerIdentity(ctx, tgt.profile)
	if err != nil {
		healthy = false
		fmt.Fprintf(deps.stdout, "Identity:    not authenticated (%v)\n", err)
		log.Debug("caller identity check failed", "error", err)
	} else {
		fmt.Fprintf(deps.stdout, "Identity:    %s\n", identity.Arn)
		fmt.Fprintf(deps.stdout, "Account:     %s\n", identity.Account)
	}

	if tgt.cluster != "" {
		info, err := deps.awsService.DescribeCluster(ctx, tgt.profile, tgt.region, tgt.cluster)
		if err != nil {
			healthy = false
			fmt.Fprintf(deps.stdout, "Cluster:     %s unavailable (%v)\n", tgt.cluster, err)
		} else {
			fmt.Fprintf(deps.stdout, "Cluster:     %s (%s, Kubernetes %s, platform %s)\n",
				info.Name, info.Status, info.Version, info.PlatformVersion)

			if info.Endpoint != "" {
				version, probeErr := deps.prober.Probe(ctx, info.Endpoint, info.CertificateAuthority)
				switch {
				case probeErr != nil:
					healthy = false
					fmt.Fprintf(deps.stdout, "Endpoint:    %v\n", probeErr)
				case version != "":
					fmt.Fprintf(deps.stdout, "Endpoint:    %s reachable (server %s)\n", info.Endpoint, version)
				default:
					fmt.Fprintf(deps.stdout, "Endpoint:    %s reachable\n", info.Endpoint)
				}
			}
		}
	}

	if tgt.namespace != "" {
		fmt.Fprintf(deps.stdout, "Pods in %s:\n", tgt.namespace)
		if err := runStep(ctx, deps, "kubectl get pods", "kubectl", getPodsArgs(tgt.namespace), deps.stdout); err != nil {
			healthy = false
			fmt.Fprintf(deps.stdout, "%v\n", err)
		}
	}

	if !healthy {
		return errors.New("session is not ready")
	}
	return nil
}

func getPodsArgs(namespace string) []string {
	return []string{"get", "-n", namespace, "pods"}
}
