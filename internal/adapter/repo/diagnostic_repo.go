package repo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"wathaci/internal/domain"
	"wathaci/internal/infra"
	"wathaci/internal/sqlinline"
)

// DiagnosticRepositoryPG implements domain.DiagnosticRepository. Answers,
// scores and recommendations are stored as jsonb.
type DiagnosticRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewDiagnosticRepository(sql infra.SQLExecutor) *DiagnosticRepositoryPG {
	return &DiagnosticRepositoryPG{sql: sql}
}

func (r *DiagnosticRepositoryPG) Create(ctx context.Context, d *domain.Diagnostic) (*domain.Diagnostic, error) {
	if d == nil {
		return nil, errNilEntity
	}
	answers, err := marshalJSON(d.Answers)
	if err != nil {
		return nil, err
	}
	scores, err := marshalJSON(d.Scores)
	if err != nil {
		return nil, err
	}
	recs := d.Recommendations
	if recs == nil {
		recs = []domain.Recommendation{}
	}
	recsJSON, err := marshalJSON(recs)
	if err != nil {
		return nil, err
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertDiagnostic, d.UserID, answers, scores, d.Overall, string(d.Band), recsJSON)
	return scanDiagnostic(row)
}

func (r *DiagnosticRepositoryPG) List(ctx context.Context, userID string, limit int) ([]domain.Diagnostic, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListDiagnostics, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Diagnostic
	for rows.Next() {
		d, err := scanDiagnostic(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// Latest returns the most recent diagnostic or ErrNotFound.
func (r *DiagnosticRepositoryPG) Latest(ctx context.Context, userID string) (*domain.Diagnostic, error) {
	list, err := r.List(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, domain.ErrNotFound
	}
	return &list[0], nil
}

func scanDiagnostic(row pgx.Row) (*domain.Diagnostic, error) {
	var d domain.Diagnostic
	var band string
	var answers, scores, recs []byte
	if err := row.Scan(&d.ID, &d.UserID, &answers, &scores, &d.Overall, &band, &recs, &d.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	d.Band = domain.HealthBand(band)
	if err := unmarshalJSON(answers, &d.Answers); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(scores, &d.Scores); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(recs, &d.Recommendations); err != nil {
		return nil, err
	}
	return &d, nil
}

var _ domain.DiagnosticRepository = (*DiagnosticRepositoryPG)(nil)
