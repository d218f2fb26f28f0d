package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "flagkit",
		Short:         "Evaluate feature flags and experiments from a datafile",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newDecideCmd(), newValidateCmd())
	return root
}
