package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"rawmount/internal/ipc"
	"rawmount/internal/mountregistry"
)

func newMountCommand(ctx *commandContext) *cobra.Command {
	var variant string
	flags := &renderConfigFlags{}

	cmd := &cobra.Command{
		Use:   "mount <source> <mount-root>",
		Short: "Project a raw capture as a virtual directory of DNG frames",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseVariant(variant)
			if err != nil {
				return err
			}

			interactive := isatty.IsTerminal(os.Stdout.Fd())
			spinner := progressbar.NewOptions(-1,
				progressbar.OptionSetDescription("opening source"),
				progressbar.OptionSpinnerType(14),
				progressbar.OptionSetVisibility(interactive),
				progressbar.OptionSetWriter(cmd.OutOrStdout()))
			done := make(chan struct{})
			go func() {
				defer close(done)
				for {
					select {
					case <-done:
						return
					case <-time.After(80 * time.Millisecond):
						_ = spinner.Add(1)
					}
				}
			}()

			var resp *ipc.MountResponse
			err = ctx.withClient(func(client *ipc.Client) error {
				resp, err = client.Mount(ipc.MountRequest{
					SourcePath: args[0],
					Variant:    v,
					MountRoot:  args[1],
					Config:     flags.build(),
				})
				return err
			})
			close(done)
			_ = spinner.Clear()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Mounted %s at %s (id %s)\n", args[0], args[1], resp.MountID)
			return nil
		},
	}

	cmd.Flags().StringVar(&variant, "variant", "", "source variant: mcraw, directlog, or dngseq")
	if err := cmd.MarkFlagRequired("variant"); err != nil {
		panic(err)
	}
	addRenderConfigFlags(cmd, flags)

	return cmd
}

func parseVariant(v string) (mountregistry.Variant, error) {
	switch v {
	case string(mountregistry.VariantMCRAW):
		return mountregistry.VariantMCRAW, nil
	case string(mountregistry.VariantDirectLog):
		return mountregistry.VariantDirectLog, nil
	case string(mountregistry.VariantDNGSeq):
		return mountregistry.VariantDNGSeq, nil
	default:
		return "", fmt.Errorf("unknown variant %q: want mcraw, directlog, or dngseq", v)
	}
}

func newUnmountCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unmount <mount-id>",
		Short: "Tear down a live mount",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Unmount(args[0])
				if err != nil {
					return err
				}
				if resp.Unmounted {
					fmt.Fprintf(cmd.OutOrStdout(), "Unmounted %s\n", args[0])
				}
				return nil
			})
		},
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every currently live mount",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.List()
				if err != nil {
					return err
				}
				if len(resp.Mounts) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No mounts")
					return nil
				}
				rows := make([][]string, 0, len(resp.Mounts))
				for _, m := range resp.Mounts {
					rows = append(rows, []string{m.ID, string(m.Variant), m.SourcePath, m.MountRoot})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Variant", "Source", "Mount Root"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}
