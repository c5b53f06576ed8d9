package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"wathaci/internal/domain"
	"wathaci/internal/service/funding"
)

// crawlTimeout bounds a synchronous admin crawl.
const crawlTimeout = 5 * time.Minute

func (a *App) FundingList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := funding.Query{
		Sector: q.Get("sector"),
		Text:   q.Get("q"),
	}
	if raw := q.Get("open"); raw != "" {
		open, err := strconv.ParseBool(raw)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "open must be true or false")
			return
		}
		query.OpenOnly = open
	}
	query.Limit, _ = strconv.Atoi(q.Get("limit"))
	query.Offset, _ = strconv.Atoi(q.Get("offset"))

	items, err := a.Funding.List(r.Context(), query)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if items == nil {
		items = []domain.FundingOpportunity{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) FundingGet(w http.ResponseWriter, r *http.Request) {
	opp, err := a.Funding.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, opp)
}

// FundingCrawl runs the crawler synchronously for operators.
func (a *App) FundingCrawl(w http.ResponseWriter, r *http.Request) {
	if a.Crawler == nil {
		a.fail(w, r, domain.ErrProviderDisabled)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), crawlTimeout)
	defer cancel()
	report, err := a.Crawler.CrawlFile(ctx, a.FundingSources)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, report)
}
