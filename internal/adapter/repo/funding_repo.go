package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"wathaci/internal/domain"
	"wathaci/internal/infra"
	"wathaci/internal/sqlinline"
)

const defaultFundingPage = 20

// FundingRepositoryPG implements domain.FundingRepository.
type FundingRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewFundingRepository(sql infra.SQLExecutor) *FundingRepositoryPG {
	return &FundingRepositoryPG{sql: sql}
}

func (r *FundingRepositoryPG) Upsert(ctx context.Context, f *domain.FundingOpportunity) (bool, error) {
	if f == nil {
		return false, errNilEntity
	}
	sectors := f.Sectors
	if sectors == nil {
		sectors = []string{}
	}
	var inserted bool
	err := r.sql.QueryRow(ctx, sqlinline.QUpsertFunding,
		f.Hash, f.Title, f.Funder, f.Description, f.Kind, sectors, f.AmountMin, f.AmountMax,
		f.Currency, f.Deadline, f.URL, f.Source, f.Eligibility,
	).Scan(&f.ID, &inserted)
	if err != nil {
		return false, mapErr(err)
	}
	return inserted, nil
}

func (r *FundingRepositoryPG) List(ctx context.Context, filter domain.FundingFilter) ([]domain.FundingOpportunity, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = defaultFundingPage
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	today := filter.Today
	if today.IsZero() {
		today = time.Now()
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListFunding, filter.Sector, filter.Query, filter.OpenOnly, today, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.FundingOpportunity
	for rows.Next() {
		f, err := scanFunding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

func (r *FundingRepositoryPG) Get(ctx context.Context, id string) (*domain.FundingOpportunity, error) {
	return scanFunding(r.sql.QueryRow(ctx, sqlinline.QSelectFunding, id))
}

func scanFunding(row pgx.Row) (*domain.FundingOpportunity, error) {
	var f domain.FundingOpportunity
	if err := row.Scan(&f.ID, &f.Hash, &f.Title, &f.Funder, &f.Description, &f.Kind, &f.Sectors, &f.AmountMin, &f.AmountMax,
		&f.Currency, &f.Deadline, &f.URL, &f.Source, &f.Eligibility, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &f, nil
}

var _ domain.FundingRepository = (*FundingRepositoryPG)(nil)
