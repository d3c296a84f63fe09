package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kartoza/gsh-benchmarker/errext"
	"github.com/kartoza/gsh-benchmarker/lib"
	"github.com/kartoza/gsh-benchmarker/store"
	"github.com/kartoza/gsh-benchmarker/ui"
)

func getRunCmd(c *rootCommand) *cobra.Command {
	var (
		layer         string
		comprehensive bool
	)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a benchmark sweep",
		Long: "Runs load tests across the configured concurrency levels, either against one " +
			"layer (--layer) or against every discovered layer (--comprehensive), and writes " +
			"per-test and consolidated JSON records to the result directory.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Exactly one of the two modes must be selected.
			if comprehensive == (layer != "") {
				return errext.WithExitCodeIfNone(
					fmt.Errorf("pick one of --layer <name> or --comprehensive"),
					errext.InvalidConfig)
			}

			flagOpts, err := flagOptions(cmd.Flags())
			if err != nil {
				return err
			}
			opts, err := c.consolidateOptions(flagOpts)
			if err != nil {
				return err
			}
			tester, err := c.newTester(opts)
			if err != nil {
				return err
			}
			if err := c.discover(tester); err != nil {
				return err
			}

			totalRequests := int(opts.TotalRequests.Int64)
			fmt.Fprintf(c.stdout, "%s\n\n", tester.Description())

			var results []lib.BenchmarkResult
			if comprehensive {
				results, err = tester.RunComprehensiveSweep(c.ctx, totalRequests, opts.ConcurrencyLevels)
			} else {
				results, err = tester.RunTargetSweep(c.ctx, layer, totalRequests, opts.ConcurrencyLevels)
			}
			if err != nil {
				var perr *store.PersistenceError
				if errors.As(err, &perr) {
					return errext.WithExitCodeIfNone(err, errext.PersistenceFailed)
				}
				return errext.WithExitCodeIfNone(err, errext.SweepFailed)
			}
			if len(results) == 0 {
				return errext.WithExitCodeIfNone(
					fmt.Errorf("no tests completed"), errext.SweepFailed)
			}

			fmt.Fprintln(c.stdout)
			ui.PrintSummary(c.stdout, results)
			fmt.Fprintf(c.stdout, "results saved under %s\n", tester.ResultsDir())
			return nil
		},
	}
	runCmd.Flags().SortFlags = false
	runCmd.Flags().StringVarP(&layer, "layer", "l", "", "benchmark a single layer by name")
	runCmd.Flags().BoolVar(&comprehensive, "comprehensive", false, "benchmark every discovered layer")
	runCmd.Flags().AddFlagSet(optionFlagSet())
	return runCmd
}
