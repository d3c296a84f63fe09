package cmd

import (
	"github.com/spf13/cobra"
	null "gopkg.in/guregu/null.v3"

	"github.com/kartoza/gsh-benchmarker/errext"
	"github.com/kartoza/gsh-benchmarker/ui"
)

func getResultsCmd(c *rootCommand) *cobra.Command {
	var limit int

	resultsCmd := &cobra.Command{
		Use:   "results",
		Short: "List stored benchmark results",
		Long:  "Lists the per-test result files in the result directory, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flagOpts, err := flagOptions(cmd.Flags())
			if err != nil {
				return err
			}
			opts, err := c.consolidateOptions(flagOpts)
			if err != nil {
				return err
			}
			// Listing stored results needs no live server; satisfy the URL
			// check the tester constructor does.
			if !opts.ServerURL.Valid || opts.ServerURL.String == "" {
				opts.ServerURL = null.StringFrom("http://localhost")
			}
			tester, err := c.newTester(opts)
			if err != nil {
				return err
			}

			summaries, err := tester.RecentResults(limit)
			if err != nil {
				return errext.WithExitCodeIfNone(err, errext.PersistenceFailed)
			}
			ui.PrintRecentResults(c.stdout, summaries)
			return nil
		},
	}
	resultsCmd.Flags().SortFlags = false
	resultsCmd.Flags().IntVar(&limit, "limit", 10, "maximum number of results to list")
	resultsCmd.Flags().AddFlagSet(optionFlagSet())
	return resultsCmd
}
