package postgres

import (
	"context"

	"github.com/spec-kit/complaint-service/internal/domain"
)

type statusHistoryRepository struct {
	q querier
}

func (r *statusHistoryRepository) Create(ctx context.Context, change *domain.StatusChange) error {
	const query = `
        INSERT INTO complaint_status_history (id, complaint_id, from_status, to_status, effective_date,
            changed_by, source, call_log_id, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := r.q.Exec(ctx, query,
		change.ID,
		change.ComplaintID,
		change.FromStatus,
		change.ToStatus,
		change.EffectiveDate,
		change.ChangedBy,
		change.Source,
		change.CallLogID,
		change.CreatedAt,
	)
	return err
}

func (r *statusHistoryRepository) ListByComplaint(ctx context.Context, complaintID string) ([]domain.StatusChange, error) {
	const query = `
        SELECT id, complaint_id, from_status, to_status, effective_date, changed_by, source, call_log_id, created_at
        FROM complaint_status_history WHERE complaint_id=$1 ORDER BY seq ASC`
	rows, err := r.q.Query(ctx, query, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusChange
	for rows.Next() {
		var change domain.StatusChange
		if err := rows.Scan(
			&change.ID,
			&change.ComplaintID,
			&change.FromStatus,
			&change.ToStatus,
			&change.EffectiveDate,
			&change.ChangedBy,
			&change.Source,
			&change.CallLogID,
			&change.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, change)
	}
	return result, rows.Err()
}
