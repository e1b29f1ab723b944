package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zerv/zerv-core/zerv"
)

func newVersionCmd(a *app) *cobra.Command {
	var (
		in  inputFlags
		out outputFlags
		tf  transformFlags
	)
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Compute a version from git, stdin or flags",
		Long: `Compute a version.

The base version is the nearest version tag (--source git), a canonical
document or plain version read from stdin (--source stdin) or --tag-version
(--source none). Overrides are applied first, then bumps from the most
significant field down. An override always wins over a bump of the same field.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := a.input(cmd, &in)
			if err != nil {
				return fail(err)
			}
			output, err := a.output(cmd, &out)
			if err != nil {
				return fail(err)
			}
			t, err := tf.transform(cmd)
			if err != nil {
				return fail(err)
			}
			if input.Source != zerv.SourceStdin {
				a.schema(&t)
			}

			res, err := zerv.Version(cmd.Context(), zerv.VersionOptions{
				Input:     input,
				Output:    output,
				Transform: t,
				Logger:    a.logger,
			})
			if err != nil {
				return fail(err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Version)
			return err
		},
	}
	in.register(cmd.Flags(), true)
	out.register(cmd.Flags())
	tf.register(cmd.Flags(), true)
	return cmd
}
