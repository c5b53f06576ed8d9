package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"wathaci/internal/adapter/repo"
	"wathaci/internal/bootstrap"
	"wathaci/internal/infra"
	"wathaci/internal/infra/credentials"
	"wathaci/internal/service/funding"
)

const crawlTimeout = 10 * time.Minute

func (c *cli) crawlCmd() *cobra.Command {
	var sources string
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl funding sources once and print the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := infra.LoadConfig()
			if err != nil {
				return err
			}
			if sources == "" {
				sources = cfg.FundingSourcesFile
			}
			if !cmd.Flag("timeout").Changed {
				c.timeout = crawlTimeout
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			runner, pool, err := c.openRunner(ctx, "crawl")
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := c.logger("crawl")
			if _, err := credentials.NewStore(runner).Resolve(ctx, cfg); err != nil {
				logger.Warn().Err(err).Msg("failed to load stored provider credentials")
			}
			providers, err := bootstrap.OpenProviders(cfg, logger)
			if err != nil {
				return err
			}
			crawler := funding.NewCrawler(
				repo.NewFundingRepository(runner),
				funding.NewFetcher(nil, cfg.CrawlRequestsPerSecond),
				providers.Extractor,
				nil,
				logger,
			)
			report, err := crawler.CrawlFile(ctx, sources)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().StringVar(&sources, "sources", "", "sources file (defaults to FUNDING_SOURCES_FILE)")
	return cmd
}
