package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kartoza/gsh-benchmarker/ui"
)

func getLayersCmd(c *rootCommand) *cobra.Command {
	layersCmd := &cobra.Command{
		Use:   "layers",
		Short: "List the layers the server publishes",
		Long:  "Fetches the WMS capabilities document and lists every named layer it advertises.",
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
			tester, err := c.newTester(opts)
			if err != nil {
				return err
			}
			if err := c.discover(tester); err != nil {
				return err
			}
			ui.PrintLayers(c.stdout, tester.Targets(), tester.TargetTitle)
			return nil
		},
	}
	layersCmd.Flags().SortFlags = false
	layersCmd.Flags().AddFlagSet(optionFlagSet())
	return layersCmd
}
