package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wathaci/internal/tools/sqllint"
)

func lintSQLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint-sql [path...]",
		Short: "Check that inline SQL constants carry unique --sql <uuid> markers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"internal/sqlinline"}
			}
			violations, err := sqllint.Lint(args)
			if err != nil {
				return err
			}
			for _, v := range violations {
				fmt.Fprintln(cmd.ErrOrStderr(), " ", v)
			}
			if len(violations) > 0 {
				return fmt.Errorf("%d SQL marker violations", len(violations))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "sql markers ok")
			return nil
		},
	}
}
