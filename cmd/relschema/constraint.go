package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tordrt/relschema/internal/naming"
)

func newConstraintNameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "constraint-name TABLE ROLE SEQ",
		Short: "Print the generated name for an unnamed constraint",
		Example: `  relschema constraint-name PURCHASE_PAYMENT_HISTORY FK 2
  PURCHASE_PAYMENT_HISTORY_FK_2`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := strconv.Atoi(args[2])
			if err != nil || seq < 1 {
				return fmt.Errorf("invalid sequence number %q: must be a positive integer", args[2])
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), naming.ConstraintName(args[0], args[1], seq))
			return err
		},
	}
}
