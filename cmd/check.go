package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kartoza/gsh-benchmarker/errext"
	"github.com/kartoza/gsh-benchmarker/ui"
)

func getCheckCmd(c *rootCommand) *cobra.Command {
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Probe every discovered layer for accessibility",
		Long: "Discovers the server's layers and issues one minimal tile request per layer, " +
			"reporting which of them would be benchmarkable.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			statuses := tester.CheckConnectivity(c.ctx)
			ui.PrintConnectivity(c.stdout, statuses)

			inaccessible := 0
			for _, status := range statuses {
				if !status.Accessible {
					inaccessible++
				}
			}
			if inaccessible == len(statuses) {
				return errext.WithExitCodeIfNone(
					fmt.Errorf("none of the %d discovered layers are accessible", len(statuses)),
					errext.DiscoveryFailed)
			}
			return nil
		},
	}
	checkCmd.Flags().SortFlags = false
	checkCmd.Flags().AddFlagSet(optionFlagSet())
	return checkCmd
}
