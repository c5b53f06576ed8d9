package funding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wathaci/internal/domain"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Query is the public listing filter.
type Query struct {
	Sector   string
	Text     string
	OpenOnly bool
	Limit    int
	Offset   int
}

// Service reads stored opportunities.
type Service struct {
	repo domain.FundingRepository
	now  func() time.Time
}

func NewService(repo domain.FundingRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) List(ctx context.Context, q Query) ([]domain.FundingOpportunity, error) {
	if q.Limit <= 0 {
		q.Limit = defaultListLimit
	}
	if q.Limit > maxListLimit {
		q.Limit = maxListLimit
	}
	if q.Offset < 0 {
		return nil, domain.NewValidationError("offset", "must not be negative")
	}
	items, err := s.repo.List(ctx, domain.FundingFilter{
		Sector:   strings.ToLower(strings.TrimSpace(q.Sector)),
		Query:    strings.TrimSpace(q.Text),
		OpenOnly: q.OpenOnly,
		Today:    s.now().UTC(),
		Limit:    q.Limit,
		Offset:   q.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list funding: %w", err)
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.FundingOpportunity, error) {
	return s.repo.Get(ctx, strings.TrimSpace(id))
}
