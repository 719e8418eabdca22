package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/repository"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the Postgres-backed repository.Store.
type Store struct {
	pool *pgxpool.Pool
	unitOfWork
}

type unitOfWork struct {
	complaints  *complaintRepository
	callLogs    *callLogRepository
	history     *statusHistoryRepository
	users       *userRepository
	permissions *permissionRepository
}

func newUnitOfWork(q querier) unitOfWork {
	return unitOfWork{
		complaints:  &complaintRepository{q: q},
		callLogs:    &callLogRepository{q: q},
		history:     &statusHistoryRepository{q: q},
		users:       &userRepository{q: q},
		permissions: &permissionRepository{q: q},
	}
}

func (u unitOfWork) Complaints() repository.ComplaintRepository   { return u.complaints }
func (u unitOfWork) CallLogs() repository.CallLogRepository       { return u.callLogs }
func (u unitOfWork) History() repository.StatusHistoryRepository  { return u.history }
func (u unitOfWork) Users() repository.UserRepository             { return u.users }
func (u unitOfWork) Permissions() repository.PermissionRepository { return u.permissions }

// NewStore builds a Store on top of an open pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, unitOfWork: newUnitOfWork(pool)}
}

// WithinTx runs fn inside a read-committed transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, uow repository.UnitOfWork) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, newUnitOfWork(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) MasterData() repository.MasterDataRepository {
	return &masterDataRepository{q: s.pool}
}

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return errors.New("postgres pool not configured")
	}
	return s.pool.Ping(ctx)
}

// Close is a no-op; the pool is owned by persistence.Postgres.
func (s *Store) Close() {}

// uniqueViolation is the SQLSTATE for a unique or primary key violation.
const uniqueViolation = "23505"

// mapWriteErr turns unique violations into repository.ErrConflict.
func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", repository.ErrConflict, pgErr.ConstraintName)
	}
	return err
}

func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}
