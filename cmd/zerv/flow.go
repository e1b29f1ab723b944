package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zerv/zerv-core/internal/ptr"
	"github.com/zerv/zerv-core/providers/flow"
	"github.com/zerv/zerv-core/providers/versioneer"
	"github.com/zerv/zerv-core/zerv"
)

type flowFlags struct {
	label        string
	number       uint64
	noPreRelease bool
	postMode     string
	branchRules  string
	branch       string
}

func newFlowCmd(a *app) *cobra.Command {
	var (
		in  inputFlags
		out outputFlags
		tf  transformFlags
		ff  flowFlags
	)
	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Compute a branch-aware version from git state",
		Long: `Compute a version from the nearest tag, the distance to it, the worktree
state and the branch rules.

The first rule whose pattern matches the branch decides the pre-release
label and number, the post mode and the schema. Default rules:

  ` + flow.DefaultRules().String(),
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
			opts, err := ff.options(cmd, a)
			if err != nil {
				return fail(err)
			}

			res, err := zerv.Flow(cmd.Context(), zerv.FlowOptions{
				Input:     input,
				Output:    output,
				Transform: t,
				Flow:      opts,
				Logger:    a.logger,
			})
			if err != nil {
				return fail(err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Version)
			return err
		},
	}
	in.register(cmd.Flags(), false)
	out.register(cmd.Flags())
	tf.register(cmd.Flags(), false)

	fs := cmd.Flags()
	fs.StringVar(&ff.label, "pre-release-label", "", "pre-release label for off-tag versions: alpha, beta, rc")
	fs.Uint64Var(&ff.number, "pre-release-num", 0, "pre-release number for off-tag versions")
	fs.BoolVar(&ff.noPreRelease, "no-pre-release", false, "never add a pre-release")
	fs.StringVar(&ff.postMode, "post-mode", "", "post numbering: tag or commit")
	fs.StringVar(&ff.branchRules, "branch-rules", "", "branch rules in canonical notation")
	fs.StringVar(&ff.branch, "branch", "", "branch name used for rule matching")
	return cmd
}

func (f *flowFlags) options(cmd *cobra.Command, a *app) (flow.Options, error) {
	opts := flow.Options{Branch: f.branch, NoPreRelease: f.noPreRelease}

	var err error
	if f.branchRules != "" {
		opts.Rules, err = flow.ParseRules(f.branchRules)
	} else {
		opts.Rules, err = a.cfg.Rules()
	}
	if err != nil {
		return opts, err
	}

	if f.label != "" {
		l, err := versioneer.ParseLabel(f.label)
		if err != nil {
			return opts, err
		}
		opts.PreReleaseLabel = &l
	}
	if cmd.Flags().Changed("pre-release-num") {
		opts.PreReleaseNum = ptr.Point(f.number)
	}
	if f.postMode != "" {
		mode, err := flow.ParsePostMode(f.postMode)
		if err != nil {
			return opts, err
		}
		opts.PostMode = mode
	}
	if f.noPreRelease && f.label != "" {
		return opts, fmt.Errorf("--no-pre-release and --pre-release-label are mutually exclusive")
	}
	return opts, nil
}
