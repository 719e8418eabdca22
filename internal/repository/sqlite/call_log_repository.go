package sqlite

import (
	"context"
	"database/sql"

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
		VALUES (?,?,?,?,?,?,?,?,?,?)`
	_, err := r.q.ExecContext(ctx, query,
		log.ID,
		log.ComplaintID,
		string(log.Outcome),
		log.Remarks,
		log.DurationMinutes,
		encodeNullTime(log.NextFollowUpDate),
		string(log.AssertedStatus),
		encodeTime(log.AssertedStatusEffectiveDate),
		log.CallerID,
		encodeTime(log.CreatedAt),
	)
	return err
}

func (r *callLogRepository) ListByComplaint(ctx context.Context, complaintID string) ([]domain.CallLog, error) {
	query := `SELECT ` + callLogColumns + ` FROM call_logs WHERE complaint_id=? ORDER BY seq ASC`
	rows, err := r.q.QueryContext(ctx, query, complaintID)
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
	query := `SELECT ` + callLogColumns + ` FROM call_logs WHERE complaint_id=? ORDER BY seq DESC LIMIT 1`
	var log domain.CallLog
	if err := scanCallLog(r.q.QueryRowContext(ctx, query, complaintID), &log); err != nil {
		return nil, mapErr(err)
	}
	return &log, nil
}

func scanCallLog(row scanner, log *domain.CallLog) error {
	var (
		followUp             sql.NullString
		effective, createdAt string
	)
	if err := row.Scan(
		&log.ID,
		&log.ComplaintID,
		&log.Outcome,
		&log.Remarks,
		&log.DurationMinutes,
		&followUp,
		&log.AssertedStatus,
		&effective,
		&log.CallerID,
		&createdAt,
	); err != nil {
		return err
	}
	var err error
	if log.NextFollowUpDate, err = decodeNullTime(followUp); err != nil {
		return err
	}
	if log.AssertedStatusEffectiveDate, err = decodeTime(effective); err != nil {
		return err
	}
	log.CreatedAt, err = decodeTime(createdAt)
	return err
}
