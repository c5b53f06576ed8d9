package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"wathaci/internal/infra/credentials"
)

func (c *cli) credentialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage stored provider secrets",
		Long: fmt.Sprintf(`Store provider secrets in the database. Values found here fill
settings missing from the environment at startup.

Providers: %s`, strings.Join(credentials.Providers, ", ")),
	}

	var (
		token string
		props map[string]string
	)
	set := &cobra.Command{
		Use:   "set <provider>",
		Short: "Store or rotate a provider secret",
		Example: `  wathacictl credentials set openai --token sk-...
  echo "$TOKEN" | wathacictl credentials set twilio --prop account_sid=AC... --prop from_number=+260...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := strings.ToLower(strings.TrimSpace(args[0]))
			secret := strings.TrimSpace(token)
			if secret == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("--token is required or pass the secret on stdin")
				}
				secret = strings.TrimSpace(line)
			}

			ctx, cancel := c.context(cmd)
			defer cancel()
			runner, pool, err := c.openRunner(ctx, "credentials")
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := credentials.NewStore(runner).Set(ctx, provider, secret, props); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s credentials\n", provider)
			return nil
		},
	}
	set.Flags().StringVar(&token, "token", "", "secret value (read from stdin when empty)")
	set.Flags().StringToStringVar(&props, "prop", nil, "extra provider property as key=value")

	list := &cobra.Command{
		Use:   "list",
		Short: "List providers with a stored secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			runner, pool, err := c.openRunner(ctx, "credentials")
			if err != nil {
				return err
			}
			defer pool.Close()

			entries, err := credentials.NewStore(runner).List(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PROVIDER\tUPDATED")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\n", e.Provider, e.UpdatedAt.UTC().Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(set, list)
	return cmd
}
