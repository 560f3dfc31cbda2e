package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookshelf/internal/api"
	"github.com/jackzampolin/bookshelf/internal/config"
	"github.com/jackzampolin/bookshelf/internal/plugins"
	"github.com/jackzampolin/bookshelf/internal/report"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and create configuration files",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration",
	Long: `Write the default configuration as YAML.

Without a path the file goes to ~/.bookshelf/config.yaml (or --home).
An existing file is never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := shelfHome.ConfigPath()
		if len(args) == 1 {
			path = args[0]
		} else {
			if shelfHome.ConfigExists() {
				return fmt.Errorf("config already exists at %s", path)
			}
			if err := shelfHome.EnsureExists(); err != nil {
				return err
			}
		}

		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("Wrote default configuration to %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := cfgMgr.Get()
		if api.IsStructuredOutput() {
			return api.Output(cfg)
		}

		registry, err := plugins.NewRegistry(plugins.Config{
			MinConfidence: &cfg.MinConfidence,
			Disabled:      cfg.DisabledPlugins,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		source := cfgMgr.File()
		if source == "" {
			source = "defaults"
		}
		report.New(os.Stdout).Config(source, cfg.Entries(), registry.Names())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
