package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/zerv/zerv-core/internal/config"
)

// app carries global flags and the loaded configuration into subcommands.
type app struct {
	dir     string
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *log.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "zerv",
		Short: "Dynamic versioning from git state",
		Long: TitleStyle.Render("zerv") + SubtitleStyle.Render(" - dynamic versioning from git state") + `

zerv reads the nearest version tag, the distance to it and the worktree
state, applies bumps and overrides and renders SemVer, PEP 440, a
template or the canonical format used to pipe versions between calls.

` + SubtitleStyle.Render("Examples:") + `
  zerv version                         Version from the nearest tag
  zerv version --bump-minor            Next minor version
  zerv flow --output-format pep440     Branch-aware version
  zerv check 1.2.3rc1                  Validate a version string
  zerv render 1.2.3rc1                 Convert a version string to SemVer`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.dir, "directory", "C", "", "run as if started in this directory")
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./"+config.FileName+")")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")

	root.AddCommand(newVersionCmd(a))
	root.AddCommand(newFlowCmd(a))
	root.AddCommand(newCheckCmd(a))
	root.AddCommand(newRenderCmd(a))
	root.AddCommand(newConfigCmd(a))
	return root
}

// setup builds the logger and loads the configuration.
func (a *app) setup(cmd *cobra.Command) error {
	a.logger = log.NewWithOptions(cmd.ErrOrStderr(), log.Options{Prefix: "zerv"})
	if a.verbose {
		a.logger.SetLevel(log.DebugLevel)
	}

	cfg, path, err := config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: a.cfgFile, Dir: a.dir})
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}
	if path != "" {
		a.logger.Debug("loaded config", "path", path)
	}
	a.cfg = cfg
	return nil
}

func (a *app) workDir() string {
	if a.dir != "" {
		return a.dir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// fail wraps err for a non-zero exit.
func fail(err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: 1, Err: err}
}
