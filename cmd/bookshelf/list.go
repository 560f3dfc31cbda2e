package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bookshelf/internal/api"
	"github.com/jackzampolin/bookshelf/internal/report"
	"github.com/jackzampolin/bookshelf/internal/shelf"
)

var (
	listDetails bool
	listFilter  string
	listSort    string
	listReverse bool
)

var listCmd = &cobra.Command{
	Use:   "list <BOOKSHELF>",
	Short: "List the books in a bookshelf directory",
	Long: `List the books in a consolidated bookshelf. Nothing is modified.

Examples:
  bookshelf list ~/Bookshelf
  bookshelf list ~/Bookshelf --details --sort pages --reverse
  bookshelf list ~/Bookshelf --filter netz -o yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sortBy, err := shelf.ParseSortField(listSort)
		if err != nil {
			return err
		}

		listing, err := shelf.List(cmd.Context(), args[0], shelf.Options{
			Filter:     listFilter,
			Sort:       sortBy,
			Reverse:    listReverse,
			Details:    listDetails,
			Extensions: cfgMgr.Get().Extensions,
			Logger:     logger,
		})
		if err != nil {
			return err
		}

		if api.IsStructuredOutput() {
			return api.Output(listing)
		}
		report.New(os.Stdout).Listing(listing, listDetails)
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVarP(&listDetails, "details", "d", false, "read each book to show its page count")
	listCmd.Flags().StringVarP(&listFilter, "filter", "f", "", "only show titles containing this text (case-insensitive)")
	listCmd.Flags().StringVarP(&listSort, "sort", "s", "title", "sort by title, size, date or pages")
	listCmd.Flags().BoolVarP(&listReverse, "reverse", "r", false, "reverse the sort order")
	rootCmd.AddCommand(listCmd)
}
