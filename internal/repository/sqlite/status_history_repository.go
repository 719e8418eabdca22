package sqlite

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
		VALUES (?,?,?,?,?,?,?,?,?)`
	_, err := r.q.ExecContext(ctx, query,
		change.ID,
		change.ComplaintID,
		string(change.FromStatus),
		string(change.ToStatus),
		encodeTime(change.EffectiveDate),
		change.ChangedBy,
		string(change.Source),
		nullString(change.CallLogID),
		encodeTime(change.CreatedAt),
	)
	return err
}

func (r *statusHistoryRepository) ListByComplaint(ctx context.Context, complaintID string) ([]domain.StatusChange, error) {
	const query = `
		SELECT id, complaint_id, from_status, to_status, effective_date, changed_by, source, call_log_id, created_at
		FROM complaint_status_history WHERE complaint_id=? ORDER BY seq ASC`
	rows, err := r.q.QueryContext(ctx, query, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusChange
	for rows.Next() {
		var (
			change               domain.StatusChange
			effective, createdAt string
		)
		if err := rows.Scan(
			&change.ID,
			&change.ComplaintID,
			&change.FromStatus,
			&change.ToStatus,
			&effective,
			&change.ChangedBy,
			&change.Source,
			&change.CallLogID,
			&createdAt,
		); err != nil {
			return nil, err
		}
		if change.EffectiveDate, err = decodeTime(effective); err != nil {
			return nil, err
		}
		if change.CreatedAt, err = decodeTime(createdAt); err != nil {
			return nil, err
		}
		result = append(result, change)
	}
	return result, rows.Err()
}
