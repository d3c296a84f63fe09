package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kartoza/gsh-benchmarker/lib/consts"
)

func getVersionCmd(c *rootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show application version",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(c.stdout, "gsh-benchmarker v%s\n", consts.FullVersion())
		},
	}
}
