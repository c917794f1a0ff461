package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResolveCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Print the destination requests would be sent to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			env, err := newEnvironment(ctx, c.config, c.logger)
			if err != nil {
				return err
			}
			defer env.Close(ctx)

			uri, err := env.template.ResolveDestination(ctx, "")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), uri)
			return err
		},
	}
}
