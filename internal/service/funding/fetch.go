package funding

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	fetchTimeout  = 15 * time.Second
	maxPageBytes  = 2 << 20
	userAgent     = "WathaciConnectBot/1.0 (+https://wathaci.com/bot)"
	acceptedTypes = "text/html,application/xhtml+xml"
)

// Fetcher downloads pages politely: one shared rate limit across all
// goroutines, a per request timeout and a body size cap.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewFetcher allows perSecond requests per second. Zero or less disables
// the limit.
func NewFetcher(client *http.Client, perSecond float64) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Fetcher{client: client, limiter: rate.NewLimiter(limit, 1)}
}

// Fetch returns at most maxPageBytes of the body of an HTML page.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptedTypes)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") && !strings.HasPrefix(ct, "text/") {
		return nil, fmt.Errorf("fetch %s: unsupported content type %q", pageURL, ct)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", pageURL, err)
	}
	return body, nil
}
