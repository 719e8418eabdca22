package sqlite

import (
	"context"
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

type userRepository struct {
	q querier
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
		INSERT INTO users (id, name, email, password_hash, role, zone_id, branch_id, active_flag, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}
	_, err := r.q.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		nullString(user.ZoneID),
		nullString(user.BranchID),
		user.Active,
		encodeTime(user.CreatedAt),
		encodeTime(user.UpdatedAt),
	)
	return mapWriteErr(err)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
		SELECT id, name, email, password_hash, role, zone_id, branch_id, active_flag, created_at, updated_at
		FROM users WHERE id=?`
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
		SELECT id, name, email, password_hash, role, zone_id, branch_id, active_flag, created_at, updated_at
		FROM users WHERE LOWER(email)=LOWER(?)`
	return r.fetchSingle(ctx, query, email)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var (
		user                 domain.User
		createdAt, updatedAt string
	)
	if err := r.q.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.ZoneID,
		&user.BranchID,
		&user.Active,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, mapErr(err)
	}
	var err error
	if user.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if user.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, err
	}
	return &user, nil
}
