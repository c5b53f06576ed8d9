package repo

import (
	"context"

	"wathaci/internal/domain"
	"wathaci/internal/infra"
	"wathaci/internal/sqlinline"
)

// StatsRepositoryPG aggregates platform counters for the admin dashboard.
type StatsRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewStatsRepository(sql infra.SQLExecutor) *StatsRepositoryPG {
	return &StatsRepositoryPG{sql: sql}
}

// PlatformStats returns headline totals and the user split by account type.
func (r *StatsRepositoryPG) PlatformStats(ctx context.Context) (*domain.PlatformStats, error) {
	var s domain.PlatformStats
	if err := r.sql.QueryRow(ctx, sqlinline.QPlatformStats).Scan(
		&s.TotalUsers,
		&s.ActiveSubscriptions,
		&s.RevenueMinor,
		&s.DonationsMinor,
		&s.FundingOpen,
		&s.NotificationsQueued,
	); err != nil {
		return nil, mapErr(err)
	}

	rows, err := r.sql.Query(ctx, sqlinline.QUsersByAccountType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	s.UsersByAccountType = make(map[string]int64)
	for rows.Next() {
		var accountType string
		var count int64
		if err := rows.Scan(&accountType, &count); err != nil {
			return nil, err
		}
		s.UsersByAccountType[accountType] = count
	}
	return &s, rows.Err()
}
