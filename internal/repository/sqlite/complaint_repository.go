package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
)

const complaintColumns = `c.id, c.ticket_number, c.title, c.description, c.category, c.priority, c.status,
		c.zone_id, c.branch_id, c.line_id, c.farmer_id, c.assignee_id, c.created_by,
		c.sla_deadline, c.version, c.created_at, c.updated_at, c.closed_at`

type complaintRepository struct {
	q querier
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *complaintRepository) Create(ctx context.Context, c *domain.Complaint) error {
	const query = `
		INSERT INTO complaints (id, ticket_number, title, description, category, priority, status,
			zone_id, branch_id, line_id, farmer_id, assignee_id, created_by, sla_deadline, version,
			created_at, updated_at, closed_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	if c.Version == 0 {
		c.Version = 1
	}
	_, err := r.q.ExecContext(ctx, query,
		c.ID,
		c.TicketNumber,
		c.Title,
		c.Description,
		string(c.Category),
		string(c.Priority),
		string(c.Status),
		c.ZoneID,
		c.BranchID,
		c.LineID,
		c.FarmerID,
		nullString(c.AssigneeID),
		c.CreatedBy,
		encodeTime(c.SLADeadline),
		c.Version,
		encodeTime(c.CreatedAt),
		encodeTime(c.UpdatedAt),
		encodeNullTime(c.ClosedAt),
	)
	return err
}

func (r *complaintRepository) Update(ctx context.Context, c *domain.Complaint) error {
	const query = `
		UPDATE complaints SET title=?, description=?, category=?, priority=?, status=?,
			assignee_id=?, sla_deadline=?, closed_at=?, updated_at=?, version=version+1
		WHERE id=? AND version=?`
	res, err := r.q.ExecContext(ctx, query,
		c.Title,
		c.Description,
		string(c.Category),
		string(c.Priority),
		string(c.Status),
		nullString(c.AssigneeID),
		encodeTime(c.SLADeadline),
		encodeNullTime(c.ClosedAt),
		encodeTime(c.UpdatedAt),
		c.ID,
		c.Version,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var count int
		if err := r.q.QueryRowContext(ctx, `SELECT COUNT(1) FROM complaints WHERE id=?`, c.ID).Scan(&count); err != nil {
			return err
		}
		if count == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}
	c.Version++
	return nil
}

func (r *complaintRepository) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	return r.fetchSingle(ctx, `SELECT `+complaintColumns+` FROM complaints c WHERE c.id=?`, id)
}

// GetForUpdate needs no explicit lock: the store runs transactions one at a time.
func (r *complaintRepository) GetForUpdate(ctx context.Context, id string) (*domain.Complaint, error) {
	return r.GetByID(ctx, id)
}

func (r *complaintRepository) GetByTicketNumber(ctx context.Context, number string) (*domain.Complaint, error) {
	return r.fetchSingle(ctx, `SELECT `+complaintColumns+` FROM complaints c WHERE c.ticket_number=?`, number)
}

func (r *complaintRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Complaint, error) {
	var c domain.Complaint
	if err := scanComplaint(r.q.QueryRowContext(ctx, query, arg), &c); err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (r *complaintRepository) List(ctx context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	base := `SELECT ` + complaintColumns + ` FROM complaints c JOIN farmers f ON f.id = c.farmer_id`
	clauses := []string{"1=1"}
	args := []any{}

	eq := func(column string, val *string) {
		if val == nil {
			return
		}
		args = append(args, *val)
		clauses = append(clauses, column+"=?")
	}
	in := func(column string, vals []string) {
		if len(vals) == 0 {
			return
		}
		placeholders := make([]string, len(vals))
		for i, v := range vals {
			args = append(args, v)
			placeholders[i] = "?"
		}
		clauses = append(clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ",")))
	}

	eq("c.zone_id", filter.ZoneID)
	eq("c.branch_id", filter.BranchID)
	eq("c.line_id", filter.LineID)
	eq("c.farmer_id", filter.FarmerID)
	eq("c.assignee_id", filter.AssigneeID)
	in("c.status", repository.Strings(filter.Statuses))
	in("c.priority", repository.Strings(filter.Priorities))
	in("c.category", repository.Strings(filter.Categories))

	if filter.CreatedFrom != nil {
		args = append(args, encodeTime(*filter.CreatedFrom))
		clauses = append(clauses, "c.created_at >= ?")
	}
	if filter.CreatedTo != nil {
		args = append(args, encodeTime(*filter.CreatedTo))
		clauses = append(clauses, "c.created_at <= ?")
	}
	if filter.BreachedAt != nil {
		args = append(args, encodeTime(*filter.BreachedAt))
		clauses = append(clauses, "c.sla_deadline < ?")
		in("c.status", repository.Strings(domain.UnresolvedStatuses()))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := repository.ContainsPattern(*filter.SearchTerm)
		args = append(args, search, search)
		clauses = append(clauses, `(LOWER(f.name) LIKE ? ESCAPE '\' OR LOWER(f.phone) LIKE ? ESCAPE '\')`)
	}

	limit, offset := filter.Page()
	query := fmt.Sprintf(`%s WHERE %s ORDER BY c.created_at DESC, c.id LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Complaint
	for rows.Next() {
		var c domain.Complaint
		if err := scanComplaint(rows, &c); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func scanComplaint(row scanner, c *domain.Complaint) error {
	var (
		deadline, createdAt, updatedAt string
		closedAt                       sql.NullString
	)
	if err := row.Scan(
		&c.ID,
		&c.TicketNumber,
		&c.Title,
		&c.Description,
		&c.Category,
		&c.Priority,
		&c.Status,
		&c.ZoneID,
		&c.BranchID,
		&c.LineID,
		&c.FarmerID,
		&c.AssigneeID,
		&c.CreatedBy,
		&deadline,
		&c.Version,
		&createdAt,
		&updatedAt,
		&closedAt,
	); err != nil {
		return err
	}
	var err error
	if c.SLADeadline, err = decodeTime(deadline); err != nil {
		return err
	}
	if c.CreatedAt, err = decodeTime(createdAt); err != nil {
		return err
	}
	if c.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return err
	}
	c.ClosedAt, err = decodeNullTime(closedAt)
	return err
}
