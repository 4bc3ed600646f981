package cmd

import (
	"context"
	"fmt"

	"github.com/eculver/aws-session/pkg/config"
	"github.com/spf13/cobra"
)

func newLogsCmd(opts *rootOptions, deps runDeps) *cobra.Command {
	var flags targetFlags
	var namespace, component, container string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Tail logs for an environment component",
		Long: `Follows logs for the pods matching the component label, prefixing each
line with its pod name. Selection comes from the environment's logs section
unless overridden by flags.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tgt, err := resolveTarget(opts, flags)
			if err != nil {
				return err
			}

			spec := tgt.logs
			if namespace != "" {
				spec.Namespace = namespace
			}
			if component != "" {
				spec.Component = component
			}
			if container != "" {
				spec.Container = container
			}
			if spec.Namespace == "" {
				spec.Namespace = tgt.namespace
			}

			return runLogs(cmd.Context(), spec, deps)
		},
	}

	addTargetFlags(cmd, &flags)
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "namespace of the component")
	cmd.Flags().StringVar(&component, "component", "", "component label to select pods by")
	cmd.Flags().StringVar(&container, "container", "", "container to read (default: component name)")

	return cmd
}

func runLogs(ctx context.Context, spec config.Logs, deps runDeps) error {
	if spec.Component == "" {
		return fmt.Errorf("a component is required: set --component or configure logs.component for the environment")
	}
	if spec.Namespace == "" {
		return fmt.Errorf("a namespace is required: set --namespace or configure one for the environment")
	}
	if spec.Container == "" {
		spec.Container = spec.Component
	}

	err := deps.executor.Run(ctx, "kubectl", tailLogsArgs(spec), deps.stdin, deps.stdout, deps.stderr)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("kubectl logs failed: %w", err)
	}
	return nil
}

func tailLogsArgs(spec config.Logs) []string {
	return []string{
		"logs",
		"-n", spec.Namespace,
		"-l", "component=" + spec.Component,
		"-c", spec.Container,
		"-f",
		"--prefix=true",
	}
}
