package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zerv/zerv-core/providers/render"
	"github.com/zerv/zerv-core/providers/ver"
	"github.com/zerv/zerv-core/zerv"
)

func newCheckCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "check <version>",
		Short: "Validate a version string",
		Long: `Validate a version string against semver, pep440 or auto.

With auto the grammars are tried in order: SemVer, PEP 440, PVP.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := args[0]
			grammar, err := ver.ParseGrammar(format)
			if err != nil {
				return fail(err)
			}

			w := cmd.OutOrStdout()
			detected, err := zerv.Check(text, grammar)
			if err != nil {
				what := "version"
				if grammar != ver.Auto {
					what = string(grammar) + " version"
				}
				fmt.Fprintln(w, ErrorStyle.Render("✗")+" "+text+" "+SubtitleStyle.Render("is not a valid "+what))
				return fail(err)
			}
			fmt.Fprintln(w, SuccessStyle.Render("✓")+" "+text+" "+SubtitleStyle.Render("is a valid "+string(detected)+" version"))

			if a.verbose {
				z, err := ver.Parse(text, detected)
				if err != nil {
					return fail(err)
				}
				semver := render.SemVer(z.Vars, z.Schema)
				pep := render.PEP440(z.Vars, z.Schema)
				fmt.Fprintln(w, SubtitleStyle.Render("  grammar: ")+string(detected))
				fmt.Fprintln(w, SubtitleStyle.Render("  semver:  ")+semver)
				fmt.Fprintln(w, SubtitleStyle.Render("  pep440:  ")+pep)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "auto", "grammar: auto, semver, pep440, pvp")
	return cmd
}
