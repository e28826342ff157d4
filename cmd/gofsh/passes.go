package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gofhir/gofsh"
	"github.com/gofhir/gofsh/optimizer"
	"github.com/gofhir/gofsh/optimizer/plugins"
)

var passesCmd = &cobra.Command{
	Use:   "passes",
	Short: "List the optimizer passes in execution order",
	Long: `Passes prints every optimizer pass enabled under the current settings, in
the order they run, with their declared ordering constraints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		keepDates, _ := cmd.Flags().GetBool("keep-dates")
		opts := gofsh.Apply(gofsh.WithKeepGeneratedDates(keepDates))
		ordered, err := optimizer.Order(plugins.All(), opts)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		for i, p := range ordered {
			fmt.Fprintf(w, "%2d. %-36s %s\n", i+1, p.Name(), p.Description())
			if before := p.RunBefore(); len(before) > 0 {
				fmt.Fprintf(w, "    before: %s\n", strings.Join(before, ", "))
			}
			if after := p.RunAfter(); len(after) > 0 {
				fmt.Fprintf(w, "    after:  %s\n", strings.Join(after, ", "))
			}
		}
		return nil
	},
}

func init() {
	passesCmd.Flags().Bool("keep-dates", false, "list passes as they run with --keep-dates")
	rootCmd.AddCommand(passesCmd)
}
