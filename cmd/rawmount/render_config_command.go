package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rawmount/internal/ipc"
)

func newRenderConfigCommand(ctx *commandContext) *cobra.Command {
	renderConfigCmd := &cobra.Command{
		Use:   "render-config",
		Short: "Change the RenderConfig a live mount serves",
	}
	renderConfigCmd.AddCommand(newRenderConfigSetCommand(ctx))
	return renderConfigCmd
}

func newRenderConfigSetCommand(ctx *commandContext) *cobra.Command {
	flags := &renderConfigFlags{}
	cmd := &cobra.Command{
		Use:   "set <mount-id>",
		Short: "Push a new RenderConfig to a live mount",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RenderConfigSet(ipc.RenderConfigSetRequest{
					MountID: args[0],
					Config:  flags.build(),
				})
				if err != nil {
					return err
				}
				if resp.Applied {
					fmt.Fprintf(cmd.OutOrStdout(), "RenderConfig updated for %s\n", args[0])
				}
				return nil
			})
		},
	}
	addRenderConfigFlags(cmd, flags)
	return cmd
}
