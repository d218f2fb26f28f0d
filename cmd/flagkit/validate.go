package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/flagkit/pkg/datafile"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [datafile]",
		Short: "Parse a JSON or YAML datafile and report what it contains",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := datafile.Load(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "datafile OK: project %s, revision %s, %d flags\n",
				snapshot.ProjectID(), snapshot.Revision(), len(snapshot.Features()))
			return err
		},
	}
}
