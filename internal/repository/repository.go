package repository

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = apperrors.ErrNotFound
	// ErrConflict is returned when a compare-and-set update lost against a concurrent
	// writer or an insert hit a unique constraint.
	ErrConflict = apperrors.ErrConflict
)

// ComplaintFilter captures listing parameters. Nil fields do not filter.
type ComplaintFilter struct {
	ZoneID      *string
	BranchID    *string
	LineID      *string
	FarmerID    *string
	AssigneeID  *string
	Statuses    []domain.ComplaintStatus
	Priorities  []domain.ComplaintPriority
	Categories  []domain.ComplaintCategory
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	// BreachedAt keeps only unresolved complaints whose deadline is before the instant.
	BreachedAt *time.Time
	Limit      int
	Offset     int
}

const (
	DefaultLimit = 20
	MaxLimit     = 200
)

// Page normalizes limit and offset.
func (f ComplaintFilter) Page() (limit, offset int) {
	limit = f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	offset = f.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ComplaintRepository encapsulates complaint persistence.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	// Update writes the complaint if its stored version still equals complaint.Version,
	// then bumps complaint.Version. A stale version yields ErrConflict.
	Update(ctx context.Context, complaint *domain.Complaint) error
	GetByID(ctx context.Context, id string) (*domain.Complaint, error)
	// GetForUpdate reads the complaint and holds its write lock until the transaction ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Complaint, error)
	GetByTicketNumber(ctx context.Context, number string) (*domain.Complaint, error)
	List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error)
}

// CallLogRepository appends and reads call logs. There is no update or delete.
type CallLogRepository interface {
	Create(ctx context.Context, log *domain.CallLog) error
	ListByComplaint(ctx context.Context, complaintID string) ([]domain.CallLog, error)
	Latest(ctx context.Context, complaintID string) (*domain.CallLog, error)
}

// StatusHistoryRepository stores transition audit entries.
type StatusHistoryRepository interface {
	Create(ctx context.Context, change *domain.StatusChange) error
	ListByComplaint(ctx context.Context, complaintID string) ([]domain.StatusChange, error)
}

// MasterDataRepository resolves the zone/branch/line/farmer references complaints point at.
type MasterDataRepository interface {
	GetZone(ctx context.Context, id string) (*domain.Zone, error)
	GetBranch(ctx context.Context, id string) (*domain.Branch, error)
	GetLine(ctx context.Context, id string) (*domain.Line, error)
	GetFarmer(ctx context.Context, id string) (*domain.Farmer, error)
	CreateZone(ctx context.Context, zone *domain.Zone) error
	CreateBranch(ctx context.Context, branch *domain.Branch) error
	CreateLine(ctx context.Context, line *domain.Line) error
	CreateFarmer(ctx context.Context, farmer *domain.Farmer) error
}

// UserRepository defines persistence access for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// PermissionRepository resolves the permissions granted to a user.
type PermissionRepository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Permission, error)
	Grant(ctx context.Context, userID string, perms ...domain.Permission) error
}

// UnitOfWork groups the repositories a lifecycle operation writes through.
type UnitOfWork interface {
	Complaints() ComplaintRepository
	CallLogs() CallLogRepository
	History() StatusHistoryRepository
	Users() UserRepository
	Permissions() PermissionRepository
}

// Store is the storage port injected into services.
type Store interface {
	UnitOfWork
	// WithinTx runs fn in one transaction. Any error from fn rolls everything back.
	WithinTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
	MasterData() MasterDataRepository
	Ping(ctx context.Context) error
	Close()
}

// Strings converts a slice of string-backed enums for use as query arguments.
func Strings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

// ContainsPattern lowercases term and wraps it for a substring LIKE with ESCAPE '\'.
// Wildcards typed by the caller match only themselves.
func ContainsPattern(term string) string {
	term = strings.ToLower(strings.TrimSpace(term))
	term = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	return "%" + term + "%"
}
