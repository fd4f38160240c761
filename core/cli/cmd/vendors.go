package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hyperterse/hyperbench/core/infrastructure/connectors"
)

// vendorsCmd lists the supported vendors
var vendorsCmd = &cobra.Command{
	Use:           "vendors",
	Short:         "List supported vendors and their required credential fields",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "VENDOR\tREQUIRED\tDESCRIPTION")
		for _, v := range connectors.Vendors() {
			required := strings.Join(v.RequiredFields, ", ")
			if required == "" {
				required = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", v.Name, required, v.Description)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(vendorsCmd)
}
