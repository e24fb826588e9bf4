package main

import (
	"github.com/spf13/cobra"
)

// plan is run with dry-run forced: the full parameter chain is computed and
// printed without launching anything or writing to the object store.
func newPlanCommand(configFlag *string) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the stage and parameter plan without side effects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeSequence(cmd, *configFlag, opts, true)
		},
	}
	addRunFlags(cmd, opts)
	return cmd
}
