package sqlite

import (
	"context"

	"github.com/spec-kit/complaint-service/internal/domain"
)

type permissionRepository struct {
	q querier
}

func (r *permissionRepository) ListByUser(ctx context.Context, userID string) ([]domain.Permission, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT permission FROM user_permissions WHERE user_id=? ORDER BY permission`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Permission
	for rows.Next() {
		var perm domain.Permission
		if err := rows.Scan(&perm); err != nil {
			return nil, err
		}
		result = append(result, perm)
	}
	return result, rows.Err()
}

func (r *permissionRepository) Grant(ctx context.Context, userID string, perms ...domain.Permission) error {
	for _, perm := range perms {
		if _, err := r.q.ExecContext(ctx,
			`INSERT OR IGNORE INTO user_permissions (user_id, permission) VALUES (?,?)`,
			userID, string(perm)); err != nil {
			return err
		}
	}
	return nil
}
