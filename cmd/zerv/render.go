package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zerv/zerv-core/providers/ver"
	"github.com/zerv/zerv-core/zerv"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		inputFormat string
		out         outputFlags
	)
	cmd := &cobra.Command{
		Use:   "render <version>",
		Short: "Convert or normalize a version string",
		Long: `Parse a version string and render it in another format.

The parsed layout is kept, so '1.2.3.4+ubuntu.20' converts without losing the fourth
release part or the local label. A canonical document is accepted as input too.`,
		Example: `  zerv render 1.2.3rc1                          1.2.3-rc.1
  zerv render 1.2.3-alpha.1 --output-format pep440   1.2.3a1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			grammar, err := ver.ParseGrammar(inputFormat)
			if err != nil {
				return fail(err)
			}
			output, err := a.output(cmd, &out)
			if err != nil {
				return fail(err)
			}
			res, err := zerv.Render(args[0], grammar, output)
			if err != nil {
				return fail(err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Version)
			return err
		},
	}
	cmd.Flags().StringVarP(&inputFormat, "input-format", "f", "auto", "grammar of the input: auto, semver, pep440, pvp")
	out.register(cmd.Flags())
	return cmd
}
