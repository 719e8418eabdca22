package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
)

const complaintColumns = `c.id, c.ticket_number, c.title, c.description, c.category, c.priority, c.status,
        c.zone_id, c.branch_id, c.line_id, c.farmer_id, c.assignee_id, c.created_by,
        c.sla_deadline, c.version, c.created_at, c.updated_at, c.closed_at`

type complaintRepository struct {
	q querier
}

func (r *complaintRepository) Create(ctx context.Context, c *domain.Complaint) error {
	const query = `
        INSERT INTO complaints (id, ticket_number, title, description, category, priority, status,
            zone_id, branch_id, line_id, farmer_id, assignee_id, created_by, sla_deadline, version,
            created_at, updated_at, closed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`
	if c.Version == 0 {
		c.Version = 1
	}
	_, err := r.q.Exec(ctx, query,
		c.ID,
		c.TicketNumber,
		c.Title,
		c.Description,
		c.Category,
		c.Priority,
		c.Status,
		c.ZoneID,
		c.BranchID,
		c.LineID,
		c.FarmerID,
		c.AssigneeID,
		c.CreatedBy,
		c.SLADeadline,
		c.Version,
		c.CreatedAt,
		c.UpdatedAt,
		c.ClosedAt,
	)
	return err
}

func (r *complaintRepository) Update(ctx context.Context, c *domain.Complaint) error {
	const query = `
        UPDATE complaints SET title=$1, description=$2, category=$3, priority=$4, status=$5,
            assignee_id=$6, sla_deadline=$7, closed_at=$8, updated_at=$9, version=version+1
        WHERE id=$10 AND version=$11`
	cmd, err := r.q.Exec(ctx, query,
		c.Title,
		c.Description,
		c.Category,
		c.Priority,
		c.Status,
		c.AssigneeID,
		c.SLADeadline,
		c.ClosedAt,
		c.UpdatedAt,
		c.ID,
		c.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM complaints WHERE id=$1)`, c.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}
	c.Version++
	return nil
}

func (r *complaintRepository) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	return r.fetchSingle(ctx, `SELECT `+complaintColumns+` FROM complaints c WHERE c.id=$1`, id)
}

func (r *complaintRepository) GetForUpdate(ctx context.Context, id string) (*domain.Complaint, error) {
	return r.fetchSingle(ctx, `SELECT `+complaintColumns+` FROM complaints c WHERE c.id=$1 FOR UPDATE`, id)
}

func (r *complaintRepository) GetByTicketNumber(ctx context.Context, number string) (*domain.Complaint, error) {
	return r.fetchSingle(ctx, `SELECT `+complaintColumns+` FROM complaints c WHERE c.ticket_number=$1`, number)
}

func (r *complaintRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Complaint, error) {
	var c domain.Complaint
	if err := scanComplaint(r.q.QueryRow(ctx, query, arg), &c); err != nil {
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
		clauses = append(clauses, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	in := func(column string, vals []string) {
		if len(vals) == 0 {
			return
		}
		placeholders := make([]string, len(vals))
		for i, v := range vals {
			args = append(args, v)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
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
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("c.created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("c.created_at <= $%d", len(args)))
	}
	if filter.BreachedAt != nil {
		args = append(args, *filter.BreachedAt)
		clauses = append(clauses, fmt.Sprintf("c.sla_deadline < $%d", len(args)))
		in("c.status", repository.Strings(domain.UnresolvedStatuses()))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		args = append(args, repository.ContainsPattern(*filter.SearchTerm))
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(`(LOWER(f.name) LIKE %s ESCAPE '\' OR LOWER(f.phone) LIKE %s ESCAPE '\')`, placeholder, placeholder))
	}

	limit, offset := filter.Page()
	query := fmt.Sprintf(`%s WHERE %s ORDER BY c.created_at DESC, c.id LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
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

func scanComplaint(row pgx.Row, c *domain.Complaint) error {
	return row.Scan(
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
		&c.SLADeadline,
		&c.Version,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.ClosedAt,
	)
}
