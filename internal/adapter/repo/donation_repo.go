package repo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"wathaci/internal/domain"
	"wathaci/internal/infra"
	"wathaci/internal/sqlinline"
)

// DonationRepositoryPG implements DonationRepository using PostgreSQL.
type DonationRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewDonationRepository creates a new donation repo.
func NewDonationRepository(sql infra.SQLExecutor) *DonationRepositoryPG {
	return &DonationRepositoryPG{sql: sql}
}

// Create inserts a new pending donation record.
func (r *DonationRepositoryPG) Create(ctx context.Context, d *domain.Donation) (*domain.Donation, error) {
	if d == nil {
		return nil, errNilEntity
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertDonation,
		stringOrEmpty(d.UserID), d.DonorName, d.Email, d.Phone, d.AmountMinor, d.Currency, d.Message, d.Campaign, d.Anonymous)
	return scanDonation(row)
}

func (r *DonationRepositoryPG) Get(ctx context.Context, id string) (*domain.Donation, error) {
	return scanDonation(r.sql.QueryRow(ctx, sqlinline.QSelectDonation, id))
}

func (r *DonationRepositoryPG) SetStatus(ctx context.Context, id string, status domain.DonationStatus) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QSetDonationStatus, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListTestimonials returns recent paid donations that carry a message. Donor
// identity is blanked for anonymous donations.
func (r *DonationRepositoryPG) ListTestimonials(ctx context.Context, limit int) ([]domain.Donation, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListDonationTestimonials, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		if d.Anonymous {
			d.DonorName = ""
			d.Email = ""
			d.UserID = nil
		}
		items = append(items, *d)
	}
	return items, rows.Err()
}

func (r *DonationRepositoryPG) Stats(ctx context.Context) (*domain.DonationStats, error) {
	var s domain.DonationStats
	if err := r.sql.QueryRow(ctx, sqlinline.QDonationStats).Scan(&s.TotalMinor, &s.Donors, &s.Count); err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}

func scanDonation(row pgx.Row) (*domain.Donation, error) {
	var d domain.Donation
	var status string
	if err := row.Scan(&d.ID, &d.UserID, &d.DonorName, &d.Email, &d.Phone, &d.AmountMinor, &d.Currency,
		&d.Message, &d.Campaign, &d.Anonymous, &status, &d.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	d.Status = domain.DonationStatus(status)
	return &d, nil
}

var _ domain.DonationRepository = (*DonationRepositoryPG)(nil)
