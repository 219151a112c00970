package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [ref]",
		Short: "Resolve a version reference",
		Long: `Resolve a version reference to a concrete version identifier and print
it. With no argument, resolves "latest". Scripts use this to pin the
version they are about to operate on.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := "latest"
			if len(args) == 1 {
				ref = args[0]
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			v, err := a.manager.Resolve(cmd.Context(), ref)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), v.String())
			return err
		},
	}
	return cmd
}
