package funding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"wathaci/internal/domain"
	"wathaci/internal/infra"
	"wathaci/internal/metrics"
	"wathaci/internal/providers/openai"
)

// searchConcurrency bounds the in-flight queries of one search source.
const searchConcurrency = 4

// Extractor turns cleaned page text into raw opportunities.
type Extractor interface {
	ExtractFunding(ctx context.Context, req openai.ExtractRequest) ([]openai.ExtractedOpportunity, error)
}

// PageFetcher downloads one page.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]byte, error)
}

// CrawlReport summarises one crawl run.
type CrawlReport struct {
	Sources    int       `json:"sources"`
	Pages      int       `json:"pages"`
	Extracted  int       `json:"extracted"`
	Valid      int       `json:"valid"`
	Upserted   int       `json:"upserted"`
	Inserted   int       `json:"inserted"`
	Errors     []string  `json:"errors"`
	Skipped    bool      `json:"skipped,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

type Crawler struct {
	repo      domain.FundingRepository
	fetcher   PageFetcher
	extractor Extractor
	metrics   *metrics.Metrics
	logger    infra.Logger
	now       func() time.Time
}

// NewCrawler builds a crawler. A nil extractor disables crawling.
func NewCrawler(repo domain.FundingRepository, fetcher PageFetcher, extractor Extractor, m *metrics.Metrics, logger infra.Logger) *Crawler {
	return &Crawler{
		repo:      repo,
		fetcher:   fetcher,
		extractor: extractor,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Enabled reports whether an extractor is configured.
func (c *Crawler) Enabled() bool { return c != nil && c.extractor != nil }

// CrawlFile loads the sources file at path and crawls it.
func (c *Crawler) CrawlFile(ctx context.Context, path string) (*CrawlReport, error) {
	sources, err := LoadSources(path)
	if err != nil {
		return nil, err
	}
	return c.Crawl(ctx, sources)
}

// Crawl runs every source once. Page level failures are collected in the
// report; only context cancellation aborts the run.
func (c *Crawler) Crawl(ctx context.Context, sources []Source) (*CrawlReport, error) {
	report := &CrawlReport{Sources: len(sources), Errors: []string{}, StartedAt: c.now().UTC()}
	if !c.Enabled() {
		c.logger.Warn().Msg("funding crawl skipped: no OpenAI credentials")
		report.Skipped = true
		report.FinishedAt = c.now().UTC()
		return report, nil
	}

	var mu sync.Mutex
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		urls := src.PageURLs()
		if src.Kind != KindSearch {
			for _, u := range urls {
				c.crawlPage(ctx, src, u, report, &mu)
			}
			continue
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(searchConcurrency)
		for _, u := range urls {
			u := u
			g.Go(func() error {
				c.crawlPage(gctx, src, u, report, &mu)
				return nil
			})
		}
		_ = g.Wait()
	}

	report.FinishedAt = c.now().UTC()
	c.logger.Info().
		Int("sources", report.Sources).
		Int("pages", report.Pages).
		Int("extracted", report.Extracted).
		Int("valid", report.Valid).
		Int("upserted", report.Upserted).
		Int("errors", len(report.Errors)).
		Dur("took", report.FinishedAt.Sub(report.StartedAt)).
		Msg("funding crawl finished")
	return report, ctx.Err()
}

func (c *Crawler) crawlPage(ctx context.Context, src Source, pageURL string, report *CrawlReport, mu *sync.Mutex) {
	fail := func(stage string, err error) {
		c.logger.Warn().Err(err).Str("source", src.Name).Str("url", pageURL).Msgf("funding %s failed", stage)
		mu.Lock()
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %s %s: %v", src.Name, stage, pageURL, err))
		mu.Unlock()
	}

	body, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		fail("fetch", err)
		return
	}
	text, err := CleanHTML(body)
	if err != nil {
		fail("clean", err)
		return
	}
	mu.Lock()
	report.Pages++
	mu.Unlock()
	if text == "" {
		return
	}

	today := c.now().UTC()
	raw, err := c.extractor.ExtractFunding(ctx, openai.ExtractRequest{Source: src.Name, URL: pageURL, Text: text, Today: today})
	if err != nil {
		fail("extract", err)
		return
	}
	mu.Lock()
	report.Extracted += len(raw)
	mu.Unlock()

	for _, item := range raw {
		opp, err := Normalize(item, src.Name, pageURL, today)
		if err != nil {
			c.count(src.Name, "rejected")
			if !errors.Is(err, ErrRejected) {
				fail("normalize", err)
			}
			continue
		}
		mu.Lock()
		report.Valid++
		mu.Unlock()

		created, err := c.repo.Upsert(ctx, opp)
		if err != nil {
			c.count(src.Name, "error")
			fail("upsert", err)
			continue
		}
		result := "updated"
		mu.Lock()
		report.Upserted++
		if created {
			report.Inserted++
			result = "inserted"
		}
		mu.Unlock()
		c.count(src.Name, result)
	}
}

func (c *Crawler) count(source, result string) {
	if c.metrics != nil {
		c.metrics.CrawlUpserts.WithLabelValues(source, result).Inc()
	}
}
