package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// UserService lets admins provision accounts and permission grants.
type UserService struct {
	store       repository.Store
	users       repository.UserRepository
	permissions repository.PermissionRepository
	masterData  repository.MasterDataRepository
	bcryptCost  int
}

// UserDependencies bundles repositories for the user service. PermissionRepo is
// typically the Redis-backed cache; grants made inside a transaction invalidate it
// after commit.
type UserDependencies struct {
	Store          repository.Store
	PermissionRepo repository.PermissionRepository
}

type permissionInvalidator interface {
	Invalidate(ctx context.Context, userID string)
}

// CreateUserInput describes a new account.
type CreateUserInput struct {
	Name        string
	Email       string
	Password    string
	Role        domain.Role
	ZoneID      *string
	BranchID    *string
	Permissions []domain.Permission
}

// NewUserService constructs the service.
func NewUserService(cfg config.Config, deps UserDependencies) *UserService {
	permissions := deps.PermissionRepo
	if permissions == nil {
		permissions = deps.Store.Permissions()
	}
	return &UserService{
		store:       deps.Store,
		users:       deps.Store.Users(),
		permissions: permissions,
		masterData:  deps.Store.MasterData(),
		bcryptCost:  cfg.Auth.BcryptCost,
	}
}

func requireAdmin(actor domain.Actor) error {
	if actor == nil || actor.Role() != domain.RoleAdmin {
		return apperrors.NewForbidden(string(domain.ReasonPermissionDenied))
	}
	return nil
}

// CreateUser provisions an active account. Executives may be pinned to a zone and,
// within it, a branch.
func (s *UserService) CreateUser(ctx context.Context, actor domain.Actor, input CreateUserInput) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("name, email and password are required", nil)
	}
	if input.Role != domain.RoleAdmin && input.Role != domain.RoleExecutive {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"value": input.Role})
	}
	if err := s.validatePerms(input.Permissions); err != nil {
		return nil, err
	}
	if err := s.validateScope(ctx, input.ZoneID, input.BranchID); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         input.Role,
		ZoneID:       input.ZoneID,
		BranchID:     input.BranchID,
		Active:       true,
	}
	emailTaken := apperrors.NewConflict("email already registered", map[string]any{"email": input.Email})
	err = s.store.WithinTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		if _, err := uow.Users().GetByEmail(ctx, input.Email); err == nil {
			return emailTaken
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if err := uow.Users().Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return emailTaken
			}
			return err
		}
		if len(input.Permissions) > 0 {
			return uow.Permissions().Grant(ctx, user.ID, input.Permissions...)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if inv, ok := s.permissions.(permissionInvalidator); ok {
		inv.Invalidate(ctx, user.ID)
	}
	return user, nil
}

// GrantPermissions adds permissions to a user and returns the resulting set.
func (s *UserService) GrantPermissions(ctx context.Context, actor domain.Actor, userID string, perms []domain.Permission) ([]domain.Permission, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validatePerms(perms); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, lookupErr(err, "user", userID)
	}
	if err := s.permissions.Grant(ctx, userID, perms...); err != nil {
		return nil, apperrors.MapError(err)
	}
	granted, err := s.permissions.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return granted, nil
}

func (s *UserService) validatePerms(perms []domain.Permission) error {
	known := domain.NewPermissionSet(domain.AllPermissions()...)
	for _, p := range perms {
		if !known.Has(p) {
			return apperrors.NewValidationError("unknown permission", map[string]any{"value": p})
		}
	}
	return nil
}

func (s *UserService) validateScope(ctx context.Context, zoneID, branchID *string) error {
	if zoneID == nil {
		if branchID != nil {
			return apperrors.NewValidationError("branch requires a zone", nil)
		}
		return nil
	}
	if _, err := s.masterData.GetZone(ctx, *zoneID); err != nil {
		return lookupErr(err, "zone", *zoneID)
	}
	if branchID == nil {
		return nil
	}
	branch, err := s.masterData.GetBranch(ctx, *branchID)
	if err != nil {
		return lookupErr(err, "branch", *branchID)
	}
	if branch.ZoneID != *zoneID {
		return apperrors.NewValidationError("branch does not belong to zone", map[string]any{"branch_id": *branchID, "zone_id": *zoneID})
	}
	return nil
}
