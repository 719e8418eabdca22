package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/testutil"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

func TestLoginAndResolveActor(t *testing.T) {
	store := testutil.NewStore(t)
	testutil.Seed(t, store)
	exec := testutil.CreateUser(t, store, domain.User{
		ID:       "exec-1",
		Email:    "Exec@Example.com",
		Role:     domain.RoleExecutive,
		ZoneID:   testutil.StrPtr("zone-5"),
		BranchID: testutil.StrPtr("branch-5a"),
	}, domain.PermComplaintView, domain.PermComplaintEdit)
	testutil.CreateUser(t, store, domain.User{ID: "admin-1", Role: domain.RoleAdmin})

	svc := NewAuthService(testConfig(), AuthDependencies{UserRepo: store.Users(), PermissionRepo: store.Permissions()})
	ctx := context.Background()

	user, token, _, err := svc.Login(ctx, "exec@example.com", testutil.Password)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != exec.ID || token == "" {
		t.Fatalf("Login returned %+v, %q", user, token)
	}
	claims, err := svc.TokenManager().ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}

	actor, err := svc.ResolveActor(ctx, claims.Subject)
	if err != nil {
		t.Fatalf("ResolveActor: %v", err)
	}
	e, ok := actor.(domain.Executive)
	if !ok {
		t.Fatalf("actor type = %T, want domain.Executive", actor)
	}
	if *e.ZoneID != "zone-5" || *e.BranchID != "branch-5a" {
		t.Errorf("scope = %v/%v", *e.ZoneID, *e.BranchID)
	}
	if !e.Granted.Has(domain.PermComplaintEdit) || e.Granted.Has(domain.PermComplaintAssign) {
		t.Errorf("granted = %v", e.Granted)
	}

	adminActor, err := svc.ResolveActor(ctx, "admin-1")
	if err != nil {
		t.Fatalf("ResolveActor admin: %v", err)
	}
	if _, ok := adminActor.(domain.Admin); !ok {
		t.Errorf("admin actor type = %T", adminActor)
	}
}

func TestLoginRejects(t *testing.T) {
	store := testutil.NewStore(t)
	testutil.CreateUser(t, store, domain.User{ID: "exec-1", Role: domain.RoleExecutive})
	svc := NewAuthService(testConfig(), AuthDependencies{UserRepo: store.Users(), PermissionRepo: store.Permissions()})

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "exec-1@example.com", "nope"},
		{"unknown email", "ghost@example.com", testutil.Password},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := svc.Login(context.Background(), tt.email, tt.password)
			assertCode(t, err, apperrors.CodeUnauthorized, "")
		})
	}

	_, err := svc.ResolveActor(context.Background(), "ghost")
	assertCode(t, err, apperrors.CodeUnauthorized, "")
}

func TestUserServiceProvisionsExecutive(t *testing.T) {
	store := testutil.NewStore(t)
	testutil.Seed(t, store)
	svc := NewUserService(testConfig(), UserDependencies{Store: store})
	ctx := context.Background()
	input := CreateUserInput{
		Name:        "Field Exec",
		Email:       "field@example.com",
		Password:    "pw",
		Role:        domain.RoleExecutive,
		ZoneID:      testutil.StrPtr("zone-5"),
		Permissions: []domain.Permission{domain.PermComplaintView},
	}

	_, err := svc.CreateUser(ctx, executive(nil, nil, domain.AllPermissions()...), input)
	assertCode(t, err, apperrors.CodeForbidden, "permission_denied")

	user, err := svc.CreateUser(ctx, admin, input)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	_, err = svc.CreateUser(ctx, admin, input)
	assertCode(t, err, apperrors.CodeConflict, "")

	granted, err := svc.GrantPermissions(ctx, admin, user.ID, []domain.Permission{domain.PermComplaintUpdateStatus})
	if err != nil {
		t.Fatalf("GrantPermissions: %v", err)
	}
	if len(granted) != 2 {
		t.Errorf("granted = %v, want 2 permissions", granted)
	}

	bad := input
	bad.Email = "other@example.com"
	bad.BranchID = testutil.StrPtr("branch-6a")
	_, err = svc.CreateUser(ctx, admin, bad)
	assertCode(t, err, apperrors.CodeValidation, "")

	bad.BranchID = nil
	bad.Permissions = []domain.Permission{"complaint.delete"}
	_, err = svc.CreateUser(ctx, admin, bad)
	assertCode(t, err, apperrors.CodeValidation, "")

	_, err = svc.GrantPermissions(ctx, admin, "ghost", []domain.Permission{domain.PermComplaintView})
	assertCode(t, err, apperrors.CodeNotFound, "")
}

func TestCreateUserConcurrentDuplicateEmail(t *testing.T) {
	store := testutil.NewStore(t)
	testutil.Seed(t, store)
	svc := NewUserService(testConfig(), UserDependencies{Store: store})
	input := CreateUserInput{
		Name:        "Twin",
		Email:       "twin@example.com",
		Password:    "pw",
		Role:        domain.RoleExecutive,
		Permissions: []domain.Permission{domain.PermComplaintView},
	}

	const workers = 8
	codes := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.CreateUser(context.Background(), admin, input)
			codes[i] = apperrors.CodeOf(err)
		}(i)
	}
	wg.Wait()

	counts := map[string]int{}
	for _, code := range codes {
		counts[code]++
	}
	if counts[""] != 1 || counts[apperrors.CodeConflict] != workers-1 {
		t.Fatalf("outcomes = %v, want 1 success and %d conflicts", counts, workers-1)
	}

	user, err := store.Users().GetByEmail(context.Background(), input.Email)
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	perms, err := store.Permissions().ListByUser(context.Background(), user.ID)
	if err != nil || len(perms) != 1 {
		t.Errorf("permissions = %v, %v; want the one granted", perms, err)
	}
}

var errGrantsDown = errors.New("permission table unavailable")

// failingGrantStore fails every permission grant made inside a transaction.
type failingGrantStore struct {
	repository.Store
}

func (s failingGrantStore) WithinTx(ctx context.Context, fn func(ctx context.Context, uow repository.UnitOfWork) error) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		return fn(ctx, failingGrantUoW{uow})
	})
}

type failingGrantUoW struct {
	repository.UnitOfWork
}

func (u failingGrantUoW) Permissions() repository.PermissionRepository {
	return failingGrants{}
}

type failingGrants struct{}

func (failingGrants) ListByUser(context.Context, string) ([]domain.Permission, error) {
	return nil, errGrantsDown
}

func (failingGrants) Grant(context.Context, string, ...domain.Permission) error {
	return errGrantsDown
}

func TestCreateUserRollsBackWhenGrantFails(t *testing.T) {
	store := testutil.NewStore(t)
	testutil.Seed(t, store)
	ctx := context.Background()
	input := CreateUserInput{
		Name:        "Retry",
		Email:       "retry@example.com",
		Password:    "pw",
		Role:        domain.RoleExecutive,
		Permissions: []domain.Permission{domain.PermComplaintView},
	}

	failing := NewUserService(testConfig(), UserDependencies{Store: failingGrantStore{Store: store}})
	_, err := failing.CreateUser(ctx, admin, input)
	if !errors.Is(err, errGrantsDown) {
		t.Fatalf("CreateUser error = %v, want %v", err, errGrantsDown)
	}
	if _, err := store.Users().GetByEmail(ctx, input.Email); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("user survived a failed grant: %v", err)
	}

	svc := NewUserService(testConfig(), UserDependencies{Store: store})
	if _, err := svc.CreateUser(ctx, admin, input); err != nil {
		t.Fatalf("retry after rollback: %v", err)
	}
}
