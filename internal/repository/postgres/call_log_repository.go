package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/domain"
)

const callLogColumns = `id, complaint_id, outcome, remarks, duration_minutes, next_follow_up_date,
        asserted_status, asserted_status_effective_date, caller_id, created_at`

type callLogRepository struct {
	q querier
}

func (r *callLogRepository) Create(ctx context.Context, log *domain.CallLog) error {
	const query = `
        INSERT INTO call_logs (id, complaint_id, outcome, remarks, duration_minutes, next_follow_up_date,
            asserted_status, asserted_status_effective_date, caller_id, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := r.q.Exec(ctx, query,
		log.ID,
		log.ComplaintID,
		log.Outcome,
		log.Remarks,
		log.DurationMinutes,
		log.NextFollowUpDate,
		log.AssertedStatus,
		log.AssertedStatusEffectiveDate,
		log.CallerID,
		log.CreatedAt,
	)
	return err
}

func (r *callLogRepository) ListByComplaint(ctx context.Context, complaintID string) ([]domain.CallLog, error) {
	query := `SELECT ` + callLogColumns + ` FROM call_logs WHERE complaint_id=$1 ORDER BY seq ASC`
	rows, err := r.q.Query(ctx, query, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CallLog
	for rows.Next() {
		var log domain.CallLog
		if err := scanCallLog(rows, &log); err != nil {
			return nil, err
		}
		result = append(result, log)
	}
	return result, rows.Err()
}

func (r *callLogRepository) Latest(ctx context.Context, complaintID string) (*domain.CallLog, error) {
	query := `SELECT ` + callLogColumns + ` FROM call_logs WHERE complaint_id=$1 ORDER BY seq DESC LIMIT 1`
	var log domain.CallLog
	if err := scanCallLog(r.q.QueryRow(ctx, query, complaintID), &log); err != nil {
		return nil, mapErr(err)
	}
	return &log, nil
}

func scanCallLog(row pgx.Row, log *domain.CallLog) error {
	return row.Scan(
		&log.ID,
		&log.ComplaintID,
		&log.Outcome,
		&log.Remarks,
		&log.DurationMinutes,
		&log.NextFollowUpDate,
		&log.AssertedStatus,
		&log.AssertedStatusEffectiveDate,
		&log.CallerID,
		&log.CreatedAt,
	)
}
