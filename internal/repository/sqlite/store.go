package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/spec-kit/complaint-service/internal/repository"
)

// Timestamps are stored as fixed-width UTC text so string comparison matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the embedded sqlite repository.Store. SQLite has a single writer, so the
// store keeps one connection and every transaction runs serially.
type Store struct {
	db *sql.DB
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

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA journal_mode = WAL",
	}
	for _, stmt := range append(pragmas, schema...) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
	}
	return &Store{db: db, unitOfWork: newUnitOfWork(db)}, nil
}

// WithinTx runs fn inside a transaction on the single connection.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, uow repository.UnitOfWork) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(ctx, newUnitOfWork(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) MasterData() repository.MasterDataRepository {
	return &masterDataRepository{q: s.db}
}

// Ping verifies the database handle.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("sqlite store not configured")
	}
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *Store) Close() {
	if s != nil && s.db != nil {
		_ = s.db.Close()
	}
}

func mapErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

// mapWriteErr turns unique and primary key violations into repository.ErrConflict.
func mapWriteErr(err error) error {
	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) {
		return err
	}
	switch code := sqlErr.Code(); {
	case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE, code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY,
		code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqlErr.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", repository.ErrConflict, err)
	}
	return err
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func encodeNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return encodeTime(*t)
}

func decodeTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode timestamp %q: %w", s, err)
	}
	return t, nil
}

func decodeNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := decodeTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
