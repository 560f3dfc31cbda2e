package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookshelf/internal/api"
	"github.com/jackzampolin/bookshelf/internal/consolidate"
	"github.com/jackzampolin/bookshelf/internal/pdfdoc"
	"github.com/jackzampolin/bookshelf/internal/plugins"
	"github.com/jackzampolin/bookshelf/internal/report"
)

var (
	dryRun  bool
	workers int
)

var consolidateCmd = &cobra.Command{
	Use:   "consolidate <SOURCE> <TARGET>",
	Short: "Copy and merge every book under SOURCE into TARGET",
	Long: `Consolidate walks SOURCE and writes one PDF per book into TARGET.

  - PDFs directly in SOURCE, and folders holding a single PDF, are copied.
  - Folders holding several PDFs are merged. The file order is decided by
    the naming convention that best matches the folder's file names
    (mitp, wichmann, hanser, oreilly, teil, semantic), falling back to
    alphabetical order.

TARGET is created if needed. The command exits non-zero unless every book
was processed.

Examples:
  bookshelf consolidate ~/Downloads/books ~/Bookshelf
  bookshelf consolidate --dry-run ./scans ./shelf
  bookshelf consolidate -o json ./scans ./shelf`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if cmd.Flags().Changed("workers") {
			if err := cfgMgr.Override("workers", workers); err != nil {
				return err
			}
		}
		cfg := cfgMgr.Get()

		registry, err := plugins.NewRegistry(plugins.Config{
			MinConfidence: &cfg.MinConfidence,
			Disabled:      cfg.DisabledPlugins,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		structured := api.IsStructuredOutput()
		printer := report.New(os.Stdout)

		ocfg := consolidate.Config{
			Adapter:          pdfdoc.New(pdfdoc.Config{Logger: logger}),
			Registry:         registry,
			Extensions:       cfg.Extensions,
			Exclude:          cfg.Exclude,
			Workers:          cfg.Workers,
			CommitRetries:    cfg.CommitRetries,
			CommitRetryDelay: cfg.CommitRetryDelay,
			VerifyStandalone: cfg.VerifyStandalone,
			Logger:           logger,
		}
		if cfg.Lock {
			if err := shelfHome.EnsureExists(); err != nil {
				return err
			}
			ocfg.Home = shelfHome
		}
		if !structured {
			ocfg.OnEvent = printer.Event
		}

		orch, err := consolidate.New(ocfg)
		if err != nil {
			return err
		}

		source, target := args[0], args[1]
		if !structured {
			printer.Header(source, target, dryRun)
		}
		sum, runErr := orch.Consolidate(ctx, consolidate.Request{Source: source, Target: target, DryRun: dryRun})

		if structured {
			if err := api.Output(sum); err != nil {
				return err
			}
		} else if runErr != nil {
			printer.Failure(runErr)
		} else {
			printer.Summary(sum)
		}

		if runErr != nil || !sum.OK() {
			return errReported
		}
		return nil
	},
}

func init() {
	consolidateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "scan, plan and name outputs without writing anything")
	consolidateCmd.Flags().IntVarP(&workers, "workers", "w", 0, "documents prepared in parallel (default from config)")
	rootCmd.AddCommand(consolidateCmd)
}
