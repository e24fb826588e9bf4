package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"spatialops/internal/manifest"
)

func newValidateCommand(configFlag *string) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Parse and validate a sample manifest without launching anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.ParseFile(input)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Manifest valid: %d sample(s)\n", m.Len())
			renderManifest(out, m)
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "Local manifest CSV path")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
