package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/repository/sqlite"
	"github.com/spec-kit/complaint-service/internal/testutil"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) ofType(eventType events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	store      *sqlite.Store
	fx         testutil.Fixture
	clock      *testutil.Clock
	events     *recorder
	complaints *ComplaintService
	calls      *CallLogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := testutil.NewStore(t)
	return newTestEnvWithStore(t, store, store)
}

// newTestEnvWithStore seeds seedStore and builds services over svcStore, which may wrap it.
func newTestEnvWithStore(t *testing.T, seedStore *sqlite.Store, svcStore repository.Store) *testEnv {
	t.Helper()
	env := &testEnv{
		store:  seedStore,
		fx:     testutil.Seed(t, seedStore),
		clock:  testutil.NewClock(t0),
		events: &recorder{},
	}
	dispatcher := events.NewInMemoryDispatcher()
	for _, eventType := range events.AllEventTypes() {
		dispatcher.Subscribe(eventType, env.events.handle)
	}
	env.complaints = NewComplaintService(ComplaintDependencies{
		Store:      svcStore,
		Dispatcher: dispatcher,
		Clock:      env.clock.Now,
	})
	env.calls = NewCallLogService(CallLogDependencies{
		Store:      svcStore,
		Complaints: env.complaints,
		Dispatcher: dispatcher,
		Clock:      env.clock.Now,
	})
	return env
}

var admin = domain.Admin{UserID: "admin-1"}

func executive(zone, branch *string, perms ...domain.Permission) domain.Executive {
	return domain.Executive{
		UserID:   "exec-1",
		ZoneID:   zone,
		BranchID: branch,
		Granted:  domain.NewPermissionSet(perms...),
	}
}

func (e *testEnv) createIn(t *testing.T, farmer domain.Farmer, priority domain.ComplaintPriority) *domain.Complaint {
	t.Helper()
	c, err := e.complaints.CreateComplaint(context.Background(), admin, CreateComplaintInput{
		Title:    "Milk chiller not cooling",
		Category: domain.ComplaintCategoryEquipment,
		Priority: priority,
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

func (e *testEnv) history(t *testing.T, complaintID string) []domain.StatusChange {
	t.Helper()
	h, err := e.store.History().ListByComplaint(context.Background(), complaintID)
	if err != nil {
		t.Fatalf("ListByComplaint: %v", err)
	}
	return h
}

func (e *testEnv) callLogs(t *testing.T, complaintID string) []domain.CallLog {
	t.Helper()
	logs, err := e.store.CallLogs().ListByComplaint(context.Background(), complaintID)
	if err != nil {
		t.Fatalf("ListByComplaint: %v", err)
	}
	return logs
}

func (e *testEnv) reload(t *testing.T, complaintID string) *domain.Complaint {
	t.Helper()
	c, err := e.store.Complaints().GetByID(context.Background(), complaintID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	return c
}

func assertCode(t *testing.T, err error, code, reason string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if got := apperrors.CodeOf(err); got != code {
		t.Fatalf("error code = %q, want %q (%v)", got, code, err)
	}
	if reason != "" {
		if got := apperrors.ReasonOf(err); got != reason {
			t.Fatalf("error reason = %q, want %q", got, reason)
		}
	}
}

func testConfig() config.Config {
	cfg := *config.Default()
	cfg.Auth.BcryptCost = 4
	return cfg
}
