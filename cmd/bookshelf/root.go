package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookshelf/internal/api"
	"github.com/jackzampolin/bookshelf/internal/config"
	"github.com/jackzampolin/bookshelf/internal/home"
	"github.com/jackzampolin/bookshelf/version"
)

// errReported is returned when the command already told the user what went
// wrong; main only sets the exit code.
var errReported = errors.New("reported")

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	logLevel     string
)

// Initialized by the root PersistentPreRunE.
var (
	shelfHome *home.Dir
	cfgMgr    *config.Manager
	logger    *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bookshelf",
	Short: "Consolidate scattered book PDFs into one flat bookshelf",
	Long: `Bookshelf flattens a directory tree of book PDFs into a single directory.

Single documents are copied as they are. Folders holding a book split into
several files (cover, chapters, appendices...) are merged into one PDF, in the
order implied by the publisher's file naming convention.

The source tree is never modified, and existing files in the target are never
overwritten: name collisions get a _1, _2, ... suffix.`,
	Version:       version.GitRelease,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := api.SetOutputFormat(outputFormat); err != nil {
			return err
		}

		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		shelfHome = h

		mgr, err := config.NewManager(cfgFile, h.ConfigPath())
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			if err := mgr.Override("log_level", logLevel); err != nil {
				return err
			}
		}
		cfgMgr = mgr

		logger, err = newLogger(mgr.Get().LogLevel)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		if f := mgr.File(); f != "" {
			logger.Debug("loaded config", "file", f)
		}
		return nil
	},
}

// newLogger logs to stderr; stdout carries the report.
func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./bookshelf.yaml or ~/.bookshelf/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "bookshelf home directory (default: ~/.bookshelf)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "text", "output format: text, yaml or json",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "warn", "log level: debug, info, warn or error (logs go to stderr)",
	)

	rootCmd.AddCommand(versionCmd)
}
