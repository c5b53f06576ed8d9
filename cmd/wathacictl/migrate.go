package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wathaci/internal/infra/migrate"
)

func (c *cli) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect schema migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withMigrator(cmd, func(r *migrate.Runner) error {
				ctx, cancel := c.context(cmd)
				defer cancel()
				applied, err := r.Up(ctx)
				for _, v := range applied {
					fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", v)
				}
				if err != nil {
					return err
				}
				if len(applied) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				}
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withMigrator(cmd, func(r *migrate.Runner) error {
				ctx, cancel := c.context(cmd)
				defer cancel()
				pending, err := r.Pending(ctx)
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no pending migrations")
				}
				for _, v := range pending {
					fmt.Fprintf(cmd.OutOrStdout(), "pending %s\n", v)
				}
				return nil
			})
		},
	})
	return cmd
}

func (c *cli) withMigrator(cmd *cobra.Command, fn func(*migrate.Runner) error) error {
	dbURL, err := databaseURL()
	if err != nil {
		return err
	}
	db, err := migrate.Open(dbURL)
	if err != nil {
		return err
	}
	defer db.Close()
	r, err := migrate.NewRunner(db, c.logger(cmd.CommandPath()))
	if err != nil {
		return err
	}
	return fn(r)
}
