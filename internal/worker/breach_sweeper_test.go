package worker

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/policy"
	"github.com/spec-kit/complaint-service/internal/testutil"
)

func TestBreachSweeperAnnouncesOncePerDeadline(t *testing.T) {
	store := testutil.NewStore(t)
	fx := testutil.Seed(t, store)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := testutil.NewClock(t0)

	complaint := &domain.Complaint{
		ID:           "c-1",
		TicketNumber: policy.TicketNumberAt(t0),
		Title:        "Cooler broken",
		Category:     domain.ComplaintCategoryEquipment,
		Priority:     domain.ComplaintPriorityCritical,
		Status:       domain.ComplaintStatusOpen,
		ZoneID:       fx.FarmerA1.ZoneID,
		BranchID:     fx.FarmerA1.BranchID,
		LineID:       fx.FarmerA1.LineID,
		FarmerID:     fx.FarmerA1.ID,
		CreatedBy:    "admin-1",
		SLADeadline:  policy.ComputeSLADeadline(domain.ComplaintPriorityCritical, t0),
		CreatedAt:    t0,
		UpdatedAt:    t0,
	}
	if err := store.Complaints().Create(ctx, complaint); err != nil {
		t.Fatalf("Create: %v", err)
	}

	var announced []events.Event
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(events.EventComplaintSLABreached, func(_ context.Context, e events.Event) error {
		announced = append(announced, e)
		return nil
	})
	metrics := observability.NewMetrics()
	sweeper := NewBreachSweeper(BreachSweeperConfig{
		Complaints: store.Complaints(),
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Interval:   time.Minute,
		Now:        clock.Now,
	})

	sweep := func(want int) {
		t.Helper()
		n, err := sweeper.Sweep(ctx)
		if err != nil {
			t.Fatalf("Sweep: %v", err)
		}
		if n != want {
			t.Fatalf("Sweep announced %d, want %d", n, want)
		}
	}

	sweep(0)
	clock.Advance(45 * time.Minute)
	sweep(1)
	sweep(0)

	// Rederiving to a later deadline clears the breach; passing that deadline announces again.
	complaint.Priority = domain.ComplaintPriorityUrgent
	complaint.SLADeadline = policy.ComputeSLADeadline(domain.ComplaintPriorityUrgent, t0)
	if err := store.Complaints().Update(ctx, complaint); err != nil {
		t.Fatalf("Update: %v", err)
	}
	sweep(0)
	clock.Advance(2 * time.Hour)
	sweep(1)

	complaint.Status = domain.ComplaintStatusClosed
	if err := store.Complaints().Update(ctx, complaint); err != nil {
		t.Fatalf("Update: %v", err)
	}
	sweep(0)

	if len(announced) != 2 {
		t.Fatalf("announced = %d events, want 2", len(announced))
	}
	payload := announced[1].Payload.(events.ComplaintSLABreachedPayload)
	if payload.Priority != domain.ComplaintPriorityUrgent || !payload.SLADeadline.Equal(t0.Add(2*time.Hour)) {
		t.Errorf("second payload = %+v", payload)
	}
	if got := metrics.Snapshot().SLABreaches; got != 2 {
		t.Errorf("metrics breaches = %d, want 2", got)
	}
}

func TestBreachSweeperRunStopsOnCancel(t *testing.T) {
	store := testutil.NewStore(t)
	sweeper := NewBreachSweeper(BreachSweeperConfig{
		Complaints: store.Complaints(),
		Interval:   time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
