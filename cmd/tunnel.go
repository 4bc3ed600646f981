package cmd

import (
	"context"
	"fmt"

	"github.com/eculver/aws-session/pkg/config"
	"github.com/eculver/aws-session/pkg/log"
	"github.com/spf13/cobra"
)

func newTunnelCmd(opts *rootOptions, deps runDeps) *cobra.Command {
	var flags targetFlags
	var service, namespace string
	var localPort, remotePort int

	cmd := &cobra.Command{
		Use:   "tunnel",
		Short: "Port-forward the environment's database service",
		Long: `Opens a kubectl port-forward to the environment's tunnel service and keeps
it open until interrupted. 'up' never starts one; tunneling is always this
explicit command.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tgt, err := resolveTarget(opts, flags)
			if err != nil {
				return err
			}

			spec := tgt.tunnel
			if service != "" {
				spec.Service = service
			}
			if namespace != "" {
				spec.Namespace = namespace
			}
			if localPort != 0 {
				spec.LocalPort = localPort
			}
			if remotePort != 0 {
				spec.RemotePort = remotePort
			}
			if spec.Namespace == "" {
				spec.Namespace = tgt.namespace
			}
			if spec.RemotePort == 0 {
				spec.RemotePort = tgt.database.Port
			}

			return runTunnel(cmd.Context(), spec, deps)
		},
	}

	addTargetFlags(cmd, &flags)
	cmd.Flags().StringVar(&service, "service", "", "service to forward to")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "namespace of the service")
	cmd.Flags().IntVar(&localPort, "local-port", 0, "local port to listen on")
	cmd.Flags().IntVar(&remotePort, "remote-port", 0, "service port to forward to (default: database port)")

	return cmd
}

func runTunnel(ctx context.Context, spec config.Tunnel, deps runDeps) error {
	if spec.Service == "" {
		return fmt.Errorf("a service is required: set --service or configure tunnel.service for the environment")
	}
	if spec.Namespace == "" {
		return fmt.Errorf("a namespace is required: set --namespace or configure one for the environment")
	}
	if spec.LocalPort == 0 {
		return fmt.Errorf("a local port is required: set --local-port or configure tunnel.local_port for the environment")
	}

	fmt.Fprintf(deps.stderr, "Forwarding localhost:%d to svc/%s:%d in %s (Ctrl-C to stop)...\n",
		spec.LocalPort, spec.Service, spec.RemotePort, spec.Namespace)
	log.Info("tunnel opened",
		"service", spec.Service,
		"namespace", spec.Namespace,
		"local_port", spec.LocalPort,
		"remote_port", spec.RemotePort)

	err := deps.executor.Run(ctx, "kubectl", portForwardArgs(spec), deps.stdin, deps.stderr, deps.stderr)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("kubectl port-forward failed: %w", err)
	}
	return nil
}

func portForwardArgs(spec config.Tunnel) []string {
	return []string{
		"port-forward",
		"svc/" + spec.Service,
		"-n", spec.Namespace,
		fmt.Sprintf("%d:%d", spec.LocalPort, spec.RemotePort),
	}
}
