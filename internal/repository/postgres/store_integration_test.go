//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/repository/postgres"
	"github.com/spec-kit/complaint-service/internal/service"
	"github.com/spec-kit/complaint-service/internal/testutil"
)

// Run with: POSTGRES_DSN=postgres://... go test -tags integration ./internal/repository/postgres/
// The tests truncate every table of the target database.

const migrationsDir = "../../../migrations"

var admin = domain.Admin{UserID: "admin-1"}

func openStore(t *testing.T) (*postgres.Store, testutil.Fixture) {
	t.Helper()
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pg, err := persistence.NewPostgres(ctx, config.PostgresConfig{DSN: dsn, MaxConns: 8}, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to connect postgres: %v", err)
	}
	t.Cleanup(pg.Close)

	if err := persistence.RunMigrations(ctx, pg.PoolHandle(), migrationsDir, zap.NewNop()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	if _, err := pg.PoolHandle().Exec(ctx, `
		TRUNCATE complaint_status_history, call_logs, complaints, user_permissions, users,
			farmers, lines, branches, zones CASCADE`); err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}

	store := postgres.NewStore(pg.PoolHandle())
	return store, testutil.Seed(t, store)
}

func newComplaintService(store repository.Store) *service.ComplaintService {
	return service.NewComplaintService(service.ComplaintDependencies{
		Store:      store,
		Dispatcher: events.NewInMemoryDispatcher(),
		Logger:     zap.NewNop(),
	})
}

func createComplaint(t *testing.T, svc *service.ComplaintService, farmer domain.Farmer) *domain.Complaint {
	t.Helper()
	c, err := svc.CreateComplaint(context.Background(), admin, service.CreateComplaintInput{
		Title:    "Milk cooler leaking",
		Category: domain.ComplaintCategoryEquipment,
		Priority: domain.ComplaintPriorityUrgent,
		FarmerID: farmer.ID,
		ZoneID:   farmer.ZoneID,
		BranchID: farmer.BranchID,
		LineID:   farmer.LineID,
	})
	if err != nil {
		t.Fatalf("CreateComplaint: %v", err)
	}
	return c
}

func TestPostgresConcurrentTransitionsSerializePerComplaint(t *testing.T) {
	store, fx := openStore(t)
	svc := newComplaintService(store)
	c := createComplaint(t, svc, fx.FarmerA1)
	ctx := context.Background()

	for round := 0; round < 10; round++ {
		targets := []domain.ComplaintStatus{domain.ComplaintStatusProgress, domain.ComplaintStatusClosed}
		if round%2 == 1 {
			targets[0], targets[1] = targets[1], targets[0]
		}
		var wg sync.WaitGroup
		errs := make([]error, len(targets))
		for i, target := range targets {
			wg.Add(1)
			go func(i int, target domain.ComplaintStatus) {
				defer wg.Done()
				_, errs[i] = svc.TransitionStatus(ctx, admin, c.ID, target, time.Time{})
			}(i, target)
		}
		wg.Wait()

		// The row lock makes the second writer wait and re-read, so neither loses a CAS.
		for i, err := range errs {
			if err != nil {
				t.Fatalf("round %d: transition %d failed: %v", round, i, err)
			}
		}

		final, err := store.Complaints().GetByID(ctx, c.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		history, err := store.History().ListByComplaint(ctx, c.ID)
		if err != nil {
			t.Fatalf("ListByComplaint: %v", err)
		}
		if last := history[len(history)-1]; last.ToStatus != final.Status {
			t.Fatalf("round %d: final status %s does not match last transition %s", round, final.Status, last.ToStatus)
		}
		for i := 1; i < len(history); i++ {
			if history[i].FromStatus != history[i-1].ToStatus {
				t.Fatalf("round %d: history chain broken at %d", round, i)
			}
		}
	}
}

func TestPostgresRowLockDoesNotBlockOtherComplaints(t *testing.T) {
	store, fx := openStore(t)
	svc := newComplaintService(store)
	held := createComplaint(t, svc, fx.FarmerA1)
	other := createComplaint(t, svc, fx.FarmerB1)
	ctx := context.Background()

	locked := make(chan struct{})
	release := make(chan struct{})
	lockErr := make(chan error, 1)
	go func() {
		lockErr <- store.WithinTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
			if _, err := uow.Complaints().GetForUpdate(ctx, held.ID); err != nil {
				close(locked)
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	otherDone := make(chan error, 1)
	go func() {
		_, err := svc.TransitionStatus(ctx, admin, other.ID, domain.ComplaintStatusProgress, time.Time{})
		otherDone <- err
	}()
	select {
	case err := <-otherDone:
		if err != nil {
			t.Fatalf("transition of unlocked complaint: %v", err)
		}
	case <-time.After(5 * time.Second):
		close(release)
		t.Fatal("transition of an unrelated complaint waited on another row lock")
	}

	heldDone := make(chan error, 1)
	go func() {
		_, err := svc.TransitionStatus(ctx, admin, held.ID, domain.ComplaintStatusProgress, time.Time{})
		heldDone <- err
	}()
	select {
	case err := <-heldDone:
		close(release)
		t.Fatalf("transition ignored the row lock (err=%v)", err)
	case <-time.After(300 * time.Millisecond):
	}

	close(release)
	if err := <-lockErr; err != nil {
		t.Fatalf("locking transaction: %v", err)
	}
	if err := <-heldDone; err != nil {
		t.Fatalf("transition after lock release: %v", err)
	}
}

func TestPostgresUpdateCompareAndSet(t *testing.T) {
	store, fx := openStore(t)
	svc := newComplaintService(store)
	c := createComplaint(t, svc, fx.FarmerA1)
	ctx := context.Background()

	stale := *c
	c.Status = domain.ComplaintStatusProgress
	c.UpdatedAt = time.Now().UTC()
	if err := store.Complaints().Update(ctx, c); err != nil {
		t.Fatalf("Update: %v", err)
	}
	stale.Status = domain.ComplaintStatusClosed
	if err := store.Complaints().Update(ctx, &stale); !errors.Is(err, repository.ErrConflict) {
		t.Errorf("stale update error = %v, want ErrConflict", err)
	}
}

func TestPostgresDuplicateUserIsConflict(t *testing.T) {
	store, _ := openStore(t)
	testutil.CreateUser(t, store, domain.User{ID: "exec-1", Email: "exec@example.com", Role: domain.RoleExecutive})

	dup := domain.User{ID: "exec-2", Name: "x", Email: "exec@example.com", Role: domain.RoleExecutive}
	if err := store.Users().Create(context.Background(), &dup); !errors.Is(err, repository.ErrConflict) {
		t.Errorf("duplicate email error = %v, want ErrConflict", err)
	}
}

func TestPostgresSearchTreatsWildcardsLiterally(t *testing.T) {
	store, fx := openStore(t)
	svc := newComplaintService(store)
	createComplaint(t, svc, fx.FarmerA1)
	createComplaint(t, svc, fx.FarmerA2)

	tests := []struct {
		term string
		want int
	}{
		{"ravi", 1},
		{"_", 0},
		{"%", 0},
		{"ra_i", 0},
	}
	for _, tt := range tests {
		got, err := store.Complaints().List(context.Background(), repository.ComplaintFilter{SearchTerm: &tt.term})
		if err != nil {
			t.Fatalf("List(%q): %v", tt.term, err)
		}
		if len(got) != tt.want {
			t.Errorf("search %q returned %d rows, want %d", tt.term, len(got), tt.want)
		}
	}
}
