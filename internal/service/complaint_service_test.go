package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/policy"
	"github.com/spec-kit/complaint-service/internal/testutil"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

func TestCreateComplaint(t *testing.T) {
	env := newTestEnv(t)
	c := env.createIn(t, env.fx.FarmerA1, domain.ComplaintPriorityCritical)

	if c.Status != domain.ComplaintStatusOpen {
		t.Errorf("status = %s, want open", c.Status)
	}
	if !c.SLADeadline.Equal(t0.Add(30 * time.Minute)) {
		t.Errorf("deadline = %s, want %s", c.SLADeadline, t0.Add(30*time.Minute))
	}
	if !strings.HasPrefix(c.TicketNumber, "CMP-20260301090000-") {
		t.Errorf("ticket number = %q", c.TicketNumber)
	}
	if c.CreatedBy != admin.UserID {
		t.Errorf("created by = %q", c.CreatedBy)
	}

	stored := env.reload(t, c.ID)
	if stored.TicketNumber != c.TicketNumber || !stored.SLADeadline.Equal(c.SLADeadline) {
		t.Errorf("stored complaint differs: %+v", stored)
	}
	if got := env.events.ofType(events.EventComplaintCreated); len(got) != 1 {
		t.Errorf("created events = %d, want 1", len(got))
	}
}

func TestCreateComplaintDefaultsPriorityToNormal(t *testing.T) {
	env := newTestEnv(t)
	c := env.createIn(t, env.fx.FarmerA1, "")
	if c.Priority != domain.ComplaintPriorityNormal {
		t.Errorf("priority = %s, want normal", c.Priority)
	}
	if !c.SLADeadline.Equal(t0.Add(8 * time.Hour)) {
		t.Errorf("deadline = %s", c.SLADeadline)
	}
}

func TestCreateComplaintRejects(t *testing.T) {
	env := newTestEnv(t)
	fx := env.fx
	valid := func(f domain.Farmer) CreateComplaintInput {
		return CreateComplaintInput{
			Title:    "Payment pending",
			Category: domain.ComplaintCategoryPayment,
			Priority: domain.ComplaintPriorityUrgent,
			FarmerID: f.ID,
			ZoneID:   f.ZoneID,
			BranchID: f.BranchID,
			LineID:   f.LineID,
		}
	}
	zone5 := testutil.StrPtr(fx.ZoneA.ID)

	tests := []struct {
		name   string
		actor  domain.Actor
		mutate func(*CreateComplaintInput)
		code   string
		reason string
	}{
		{"unknown category", admin, func(in *CreateComplaintInput) { in.Category = "weather" }, apperrors.CodeValidation, ""},
		{"unknown priority", admin, func(in *CreateComplaintInput) { in.Priority = "low" }, apperrors.CodeValidation, ""},
		{"missing title", admin, func(in *CreateComplaintInput) { in.Title = "  " }, apperrors.CodeValidation, ""},
		{"unknown farmer", admin, func(in *CreateComplaintInput) { in.FarmerID = "farmer-x" }, apperrors.CodeNotFound, ""},
		{"unknown zone", admin, func(in *CreateComplaintInput) { in.ZoneID = "zone-x" }, apperrors.CodeNotFound, ""},
		{"farmer on another branch", admin, func(in *CreateComplaintInput) { in.FarmerID = fx.FarmerA2.ID }, apperrors.CodeValidation, ""},
		{"branch outside zone", admin, func(in *CreateComplaintInput) { in.BranchID = fx.BranchB1.ID }, apperrors.CodeValidation, ""},
		{"line outside branch", admin, func(in *CreateComplaintInput) { in.LineID = fx.LineA2.ID }, apperrors.CodeValidation, ""},
		{"no create permission", executive(zone5, nil, domain.PermComplaintView), func(*CreateComplaintInput) {}, apperrors.CodeForbidden, "permission_denied"},
		{"other zone", executive(testutil.StrPtr(fx.ZoneB.ID), nil, domain.PermComplaintCreate), func(*CreateComplaintInput) {}, apperrors.CodeForbidden, "zone_scope_violation"},
		{"other branch", executive(zone5, testutil.StrPtr(fx.BranchA2.ID), domain.PermComplaintCreate), func(*CreateComplaintInput) {}, apperrors.CodeForbidden, "branch_scope_violation"},
		{"unauthenticated", nil, func(*CreateComplaintInput) {}, apperrors.CodeForbidden, "unauthenticated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := valid(fx.FarmerA1)
			tt.mutate(&input)
			_, err := env.complaints.CreateComplaint(context.Background(), tt.actor, input)
			assertCode(t, err, tt.code, tt.reason)
		})
	}

	list, err := env.complaints.ListComplaints(context.Background(), admin, ComplaintListFilter{})
	if err != nil {
		t.Fatalf("ListComplaints: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("rejected creates left %d complaints", len(list))
	}
}

func TestCreateComplaintByScopedExecutive(t *testing.T) {
	env := newTestEnv(t)
	actor := executive(testutil.StrPtr("zone-5"), testutil.StrPtr("branch-5a"), domain.PermComplaintCreate)
	c, err := env.complaints.CreateComplaint(context.Background(), actor, CreateComplaintInput{
		Title:    "Fodder quality",
		Category: domain.ComplaintCategoryQuality,
		FarmerID: env.fx.FarmerA1.ID,
		ZoneID:   "zone-5",
		BranchID: "branch-5a",
		LineID:   "line-5a1",
	})
	if err != nil {
		t.Fatalf("CreateComplaint: %v", err)
	}
	if c.CreatedBy != actor.UserID {
		t.Errorf("created by = %q", c.CreatedBy)
	}
}

func TestTransitionStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createIn(t, env.fx.FarmerA1, domain.ComplaintPriorityNormal)
	effective := t0.Add(-24 * time.Hour)

	updated, err := env.complaints.TransitionStatus(ctx, admin, c.ID, domain.ComplaintStatusClosed, effective)
	if err != nil {
		t.Fatalf("TransitionStatus: %v", err)
	}
	if updated.Status != domain.ComplaintStatusClosed || updated.ClosedAt == nil {
		t.Errorf("complaint after close = %+v", updated)
	}
	if !updated.SLADeadline.Equal(c.SLADeadline) {
		t.Errorf("effective date moved the deadline to %s", updated.SLADeadline)
	}

	env.clock.Advance(time.Minute)
	reopened, err := env.complaints.TransitionStatus(ctx, admin, c.ID, domain.ComplaintStatusReopen, time.Time{})
	if err != nil {
		t.Fatalf("TransitionStatus reopen: %v", err)
	}
	if reopened.ClosedAt != nil {
		t.Errorf("reopen kept closed_at")
	}

	history := env.history(t, c.ID)
	if len(history) != 2 {
		t.Fatalf("history entries = %d, want 2", len(history))
	}
	first := history[0]
	if first.FromStatus != domain.ComplaintStatusOpen || first.ToStatus != domain.ComplaintStatusClosed {
		t.Errorf("first entry = %s -> %s", first.FromStatus, first.ToStatus)
	}
	if !first.EffectiveDate.Equal(effective) || first.Source != domain.StatusChangeSourceDirect || first.CallLogID != nil {
		t.Errorf("first entry = %+v", first)
	}
	if !history[1].EffectiveDate.Equal(t0.Add(time.Minute)) {
		t.Errorf("defaulted effective date = %s", history[1].EffectiveDate)
	}
	if got := env.events.ofType(events.EventComplaintStatusChanged); len(got) != 2 {
		t.Errorf("status events = %d, want 2", len(got))
	}
}

func TestTransitionStatusSameStatusIsNoop(t *testing.T) {
	env := newTestEnv(t)
	c := env.createIn(t, env.fx.FarmerA1, domain.ComplaintPriorityNormal)

	got, err := env.complaints.TransitionStatus(context.Background(), admin, c.ID, domain.ComplaintStatusOpen, time.Time{})
	if err != nil {
		t.Fatalf("TransitionStatus: %v", err)
	}
	if got.Version != c.Version {
		t.Errorf("version changed from %d to %d", c.Version, got.Version)
	}
	if h := env.history(t, c.ID); len(h) != 0 {
		t.Errorf("history entries = %d, want 0", len(h))
	}
}

func TestTransitionStatusRejects(t *testing.T) {
	env := newTestEnv(t)
	c := env.createIn(t, env.fx.FarmerA1, domain.ComplaintPriorityNormal)
	zone5 := testutil.StrPtr("zone-5")

	tests := []struct {
		name   string
		actor  domain.Actor
		id     string
		target domain.ComplaintStatus
		code   string
		reason string
	}{
		{"invalid status", admin, c.ID, "archived", apperrors.CodeValidation, "invalid_status"},
		{"unknown complaint", admin, "missing", domain.ComplaintStatusClosed, apperrors.CodeNotFound, ""},
		{"edit is not enough", executive(zone5, nil, domain.PermComplaintEdit), c.ID, domain.ComplaintStatusClosed, apperrors.CodeForbidden, "permission_denied"},
		{"other zone", executive(testutil.StrPtr("zone-6"), nil, domain.PermComplaintUpdateStatus), c.ID, domain.ComplaintStatusClosed, apperrors.CodeForbidden, "zone_scope_violation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.complaints.TransitionStatus(context.Background(), tt.actor, tt.id, tt.target, time.Time{})
			assertCode(t, err, tt.code, tt.reason)
		})
	}
	if got := env.reload(t, c.ID); got.Status != domain.ComplaintStatusOpen {
		t.Errorf("status = %s after rejected transitions", got.Status)
	}
}

func TestConcurrentTransitionsLastWriterWins(t *testing.T) {
	env := newTestEnv(t)
	c := env.createIn(t, env.fx.FarmerA1, domain.ComplaintPriorityUrgent)
	actor := executive(nil, nil, domain.PermComplaintUpdateStatus)

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
				_, errs[i] = env.complaints.TransitionStatus(context.Background(), actor, c.ID, target, time.Time{})
			}(i, target)
		}
		wg.Wait()

		conflicts := 0
		for _, err := range errs {
			switch {
			case err == nil:
			case apperrors.CodeOf(err) == apperrors.CodeConflict:
				conflicts++
			default:
				t.Fatalf("round %d: unexpected error %v", round, err)
			}
		}
		if conflicts > 1 {
			t.Fatalf("round %d: both transitions conflicted", round)
		}

		final := env.reload(t, c.ID)
		history := env.history(t, c.ID)
		if len(history) == 0 {
			t.Fatalf("round %d: no history", round)
		}
		if last := history[len(history)-1]; last.ToStatus != final.Status {
			t.Fatalf("round %d: final status %s does not match last committed transition %s", round, final.Status, last.ToStatus)
		}
		for i := 1; i < len(history); i++ {
			if history[i].FromStatus != history[i-1].ToStatus {
				t.Fatalf("round %d: history chain broken at %d", round, i)
			}
		}
	}
}

func TestUpdatePriority(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createIn(t, env.fx.FarmerA1, domain.ComplaintPriorityNormal)
	env.clock.Advance(time.Hour)

	kept, err := env.complaints.UpdatePriority(ctx, admin, c.ID, domain.ComplaintPriorityUrgent, false)
	if err != nil {
		t.Fatalf("UpdatePriority: %v", err)
	}
	if kept.Priority != domain.ComplaintPriorityUrgent || !kept.SLADeadline.Equal(c.SLADeadline) {
		t.Errorf("priority change without rederive moved deadline: %+v", kept)
	}

	moved, err := env.complaints.UpdatePriority(ctx, admin, c.ID, domain.ComplaintPriorityUrgent, true)
	if err != nil {
		t.Fatalf("UpdatePriority rederive: %v", err)
	}
	if want := t0.Add(2 * time.Hour); !moved.SLADeadline.Equal(want) {
		t.Errorf("rederived deadline = %s, want %s", moved.SLADeadline, want)
	}

	evts := env.events.ofType(events.EventComplaintPriorityChanged)
	if len(evts) != 2 {
		t.Fatalf("priority events = %d, want 2", len(evts))
	}
	if p := evts[1].Payload.(events.ComplaintPriorityChangedPayload); !p.DeadlineMoved {
		t.Errorf("second event payload = %+v", p)
	}

	_, err = env.complaints.UpdatePriority(ctx, executive(nil, nil, domain.PermComplaintView), c.ID, domain.ComplaintPriorityCritical, true)
	assertCode(t, err, apperrors.CodeForbidden, "permission_denied")
	_, err = env.complaints.UpdatePriority(ctx, admin, c.ID, "low", false)
	assertCode(t, err, apperrors.CodeValidation, "")
}

func TestAssignComplaint(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createIn(t, env.fx.FarmerA1, domain.ComplaintPriorityNormal)
	assignee := testutil.CreateUser(t, env.store, domain.User{ID: "exec-7", Role: domain.RoleExecutive})
	inactive := &domain.User{ID: "exec-8", Name: "Gone", Email: "gone@example.com", PasswordHash: "x", Role: domain.RoleExecutive}
	if err := env.store.Users().Create(ctx, inactive); err != nil {
		t.Fatalf("create inactive user: %v", err)
	}

	_, err := env.complaints.AssignComplaint(ctx, admin, c.ID, testutil.StrPtr("nobody"))
	assertCode(t, err, apperrors.CodeNotFound, "")
	_, err = env.complaints.AssignComplaint(ctx, admin, c.ID, &inactive.ID)
	assertCode(t, err, apperrors.CodeValidation, "")
	_, err = env.complaints.AssignComplaint(ctx, executive(nil, nil, domain.PermComplaintEdit), c.ID, &assignee.ID)
	assertCode(t, err, apperrors.CodeForbidden, "permission_denied")

	got, err := env.complaints.AssignComplaint(ctx, admin, c.ID, &assignee.ID)
	if err != nil {
		t.Fatalf("AssignComplaint: %v", err)
	}
	if got.AssigneeID == nil || *got.AssigneeID != assignee.ID {
		t.Errorf("assignee = %v", got.AssigneeID)
	}
	cleared, err := env.complaints.AssignComplaint(ctx, admin, c.ID, nil)
	if err != nil {
		t.Fatalf("AssignComplaint clear: %v", err)
	}
	if cleared.AssigneeID != nil {
		t.Errorf("assignee not cleared")
	}
	if evts := env.events.ofType(events.EventComplaintAssigned); len(evts) != 2 {
		t.Errorf("assigned events = %d, want 2", len(evts))
	}
}

func TestGetComplaintScope(t *testing.T) {
	env := newTestEnv(t)
	c := env.createIn(t, env.fx.FarmerA1, domain.ComplaintPriorityNormal)

	if _, err := env.complaints.GetComplaint(context.Background(), executive(testutil.StrPtr("zone-5"), nil, domain.PermComplaintView), c.ID); err != nil {
		t.Errorf("zone-5 executive denied: %v", err)
	}
	_, err := env.complaints.GetComplaint(context.Background(), executive(testutil.StrPtr("zone-6"), nil, domain.PermComplaintView), c.ID)
	assertCode(t, err, apperrors.CodeForbidden, "zone_scope_violation")
	_, err = env.complaints.GetComplaint(context.Background(), admin, "missing")
	assertCode(t, err, apperrors.CodeNotFound, "")
}

func TestListComplaintsIntersectsScope(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a1 := env.createIn(t, env.fx.FarmerA1, domain.ComplaintPriorityNormal)
	a2 := env.createIn(t, env.fx.FarmerA2, domain.ComplaintPriorityNormal)
	b1 := env.createIn(t, env.fx.FarmerB1, domain.ComplaintPriorityNormal)

	zone5 := testutil.StrPtr("zone-5")
	zone6 := testutil.StrPtr("zone-6")
	branch5a := testutil.StrPtr("branch-5a")
	branch5b := testutil.StrPtr("branch-5b")

	tests := []struct {
		name   string
		actor  domain.Actor
		filter ComplaintListFilter
		want   []string
	}{
		{"admin sees all", admin, ComplaintListFilter{}, []string{a1.ID, a2.ID, b1.ID}},
		{"admin filters zone", admin, ComplaintListFilter{ZoneID: zone6}, []string{b1.ID}},
		{"zone executive", executive(zone5, nil, domain.PermComplaintView), ComplaintListFilter{}, []string{a1.ID, a2.ID}},
		{"zone executive asks other zone", executive(zone5, nil, domain.PermComplaintView), ComplaintListFilter{ZoneID: zone6}, nil},
		{"branch executive", executive(zone5, branch5a, domain.PermComplaintView), ComplaintListFilter{}, []string{a1.ID}},
		{"branch executive asks sibling branch", executive(zone5, branch5a, domain.PermComplaintView), ComplaintListFilter{BranchID: branch5b}, nil},
		{"zone executive narrows to branch", executive(zone5, nil, domain.PermComplaintView), ComplaintListFilter{BranchID: branch5b}, []string{a2.ID}},
		{"org-wide executive", executive(nil, nil, domain.PermComplaintView), ComplaintListFilter{}, []string{a1.ID, a2.ID, b1.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.complaints.ListComplaints(ctx, tt.actor, tt.filter)
			if err != nil {
				t.Fatalf("ListComplaints: %v", err)
			}
			if got == nil {
				t.Fatal("ListComplaints returned nil slice")
			}
			ids := map[string]bool{}
			for _, c := range got {
				ids[c.ID] = true
			}
			if len(ids) != len(tt.want) {
				t.Fatalf("got %d complaints, want %d", len(ids), len(tt.want))
			}
			for _, id := range tt.want {
				if !ids[id] {
					t.Errorf("missing complaint %s", id)
				}
			}
		})
	}

	_, err := env.complaints.ListComplaints(ctx, executive(zone5, nil, domain.PermComplaintEdit), ComplaintListFilter{})
	assertCode(t, err, apperrors.CodeForbidden, "permission_denied")
	_, err = env.complaints.ListComplaints(ctx, nil, ComplaintListFilter{})
	assertCode(t, err, apperrors.CodeForbidden, "unauthenticated")
}

func TestListComplaintsBreached(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	critical := env.createIn(t, env.fx.FarmerA1, domain.ComplaintPriorityCritical)
	env.createIn(t, env.fx.FarmerA1, domain.ComplaintPriorityNormal)
	closed := env.createIn(t, env.fx.FarmerA2, domain.ComplaintPriorityCritical)
	if _, err := env.complaints.TransitionStatus(ctx, admin, closed.ID, domain.ComplaintStatusClosed, time.Time{}); err != nil {
		t.Fatalf("TransitionStatus: %v", err)
	}

	env.clock.Advance(45 * time.Minute)
	got, err := env.complaints.ListComplaints(ctx, admin, ComplaintListFilter{Breached: true})
	if err != nil {
		t.Fatalf("ListComplaints: %v", err)
	}
	if len(got) != 1 || got[0].ID != critical.ID {
		t.Fatalf("breached = %v, want only %s", got, critical.ID)
	}
	if !policy.IsBreached(&got[0], env.clock.Now()) {
		t.Error("listed complaint is not breached by the predicate")
	}
}

func TestListStatusHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createIn(t, env.fx.FarmerA1, domain.ComplaintPriorityNormal)
	if _, err := env.complaints.TransitionStatus(ctx, admin, c.ID, domain.ComplaintStatusProgress, time.Time{}); err != nil {
		t.Fatalf("TransitionStatus: %v", err)
	}

	history, err := env.complaints.ListStatusHistory(ctx, executive(testutil.StrPtr("zone-5"), nil, domain.PermComplaintView), c.ID)
	if err != nil {
		t.Fatalf("ListStatusHistory: %v", err)
	}
	if len(history) != 1 || history[0].ToStatus != domain.ComplaintStatusProgress {
		t.Errorf("history = %+v", history)
	}
	_, err = env.complaints.ListStatusHistory(ctx, executive(testutil.StrPtr("zone-6"), nil, domain.PermComplaintView), c.ID)
	assertCode(t, err, apperrors.CodeForbidden, "zone_scope_violation")
}
