package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zerv/zerv-core/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage zerv configuration",
		Long: `Manage zerv configuration.

Configuration is read from ./` + config.FileName + ` (or --config) and ZERV_*
environment variables, e.g. ZERV_OUTPUT_FORMAT=pep440.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfgFile
			if path == "" {
				path = filepath.Join(a.workDir(), config.FileName)
			}
			if err := config.WriteFile(path, config.InitConfig(), force); err != nil {
				return fail(err)
			}
			a.logger.Info("created config", "path", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return fail(config.Write(cmd.OutOrStdout(), a.cfg))
		},
	}

	cfgCmd.AddCommand(initCmd, showCmd)
	return cfgCmd
}
