package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"rawmount/internal/ipc"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate rawmount configuration",
	}
	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	return configCmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the running daemon's loaded configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ConfigShow()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "IO workers:         %d\n", resp.IOWorkers)
				fmt.Fprintf(out, "Processing workers: %d\n", resp.ProcessingWorkers)
				fmt.Fprintf(out, "Cache budget:       %s\n", humanize.IBytes(uint64(resp.CacheMaxMiB)*1024*1024))
				fmt.Fprintf(out, "Log dir:            %s\n", resp.LogDir)
				fmt.Fprintf(out, "Mount registry:     %s\n", resp.MountRegistryPath)
				fmt.Fprintf(out, "Lock dir:           %s\n", resp.LockDir)
				return nil
			})
		},
	}
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Validate a candidate configuration file without adopting it",
		Args:  cobra.ExactArgs(1),
		Annotations: map[string]string{
			"skipConfigLoad": "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ConfigValidate(args[0])
				if err != nil {
					return err
				}
				if resp.Valid {
					fmt.Fprintln(cmd.OutOrStdout(), "ok")
					return nil
				}
				return fmt.Errorf("invalid config: %s", resp.Message)
			})
		},
	}
	return cmd
}
