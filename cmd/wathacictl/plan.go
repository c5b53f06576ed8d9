package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wathaci/internal/adapter/repo"
	"wathaci/internal/domain"
	"wathaci/internal/service/billing"
)

func (c *cli) planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage user plans",
	}

	var id, email string
	set := &cobra.Command{
		Use:   "set <plan>",
		Short: "Assign a plan to a user without a payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := parsePlan(args[0])
			if err != nil {
				return err
			}
			id, email = strings.TrimSpace(id), strings.TrimSpace(email)
			if id == "" && email == "" {
				return errors.New("either --id or --email must be provided")
			}

			ctx, cancel := c.context(cmd)
			defer cancel()
			runner, pool, err := c.openRunner(ctx, "plan")
			if err != nil {
				return err
			}
			defer pool.Close()

			users := repo.NewUserRepository(runner)
			var user *domain.User
			if id != "" {
				user, err = users.GetByID(ctx, id)
			} else {
				user, err = users.GetByEmail(ctx, email)
			}
			if err != nil {
				return fmt.Errorf("load user: %w", err)
			}
			if err := users.UpdatePlan(ctx, user.ID, plan); err != nil {
				return fmt.Errorf("update plan: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s (%s) moved from %s to %s\n", user.ID, user.Email, user.Plan, plan)
			return nil
		},
	}
	set.Flags().StringVar(&id, "id", "", "user ID (UUID)")
	set.Flags().StringVar(&email, "email", "", "user email")
	cmd.AddCommand(set)
	return cmd
}

func parsePlan(raw string) (domain.PlanCode, error) {
	code := domain.PlanCode(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := billing.LookupPlan(code, ""); !ok {
		return "", fmt.Errorf("unsupported plan %q", raw)
	}
	return code, nil
}
