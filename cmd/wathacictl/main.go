// Command wathacictl runs operator tasks against the Wathaci database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"wathaci/internal/infra"
)

type cli struct {
	timeout time.Duration
	verbose bool
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "wathacictl",
		Short:         "Operator tooling for Wathaci Connect",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 30*time.Second, "Operation timeout")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log every SQL statement")

	root.AddCommand(
		c.migrateCmd(),
		c.planCmd(),
		c.credentialsCmd(),
		c.crawlCmd(),
		lintSQLCmd(),
	)
	return root
}

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "wathacictl:", err)
		os.Exit(1)
	}
}

func (c *cli) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), c.timeout)
}

func (c *cli) logger(name string) infra.Logger {
	logger := infra.NewLogger("cli").With().Str("cmd", name).Logger()
	if c.verbose {
		return logger.Level(zerolog.DebugLevel)
	}
	return logger.Level(zerolog.WarnLevel)
}

func databaseURL() (string, error) {
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		return "", errors.New("DATABASE_URL is required")
	}
	return dbURL, nil
}

// openRunner connects with pgx. The caller closes the pool.
func (c *cli) openRunner(ctx context.Context, name string) (*infra.SQLRunner, *pgxpool.Pool, error) {
	dbURL, err := databaseURL()
	if err != nil {
		return nil, nil, err
	}
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return infra.NewSQLRunner(pool, c.logger(name)), pool, nil
}
