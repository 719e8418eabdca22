package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/policy"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// ComplaintService owns the complaint lifecycle: creation, transitions, priority and
// assignment changes, and scoped reads.
type ComplaintService struct {
	store repository.Store
	publisher
}

// ComplaintDependencies bundles collaborators for the complaint service.
type ComplaintDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      Clock
}

// CreateComplaintInput describes a new complaint.
type CreateComplaintInput struct {
	Title       string
	Description string
	Category    domain.ComplaintCategory
	Priority    domain.ComplaintPriority
	FarmerID    string
	ZoneID      string
	BranchID    string
	LineID      string
}

// ComplaintListFilter is the caller-requested listing filter. It is narrowed to the
// actor's scope before it reaches storage.
type ComplaintListFilter struct {
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
	Breached    bool
	Limit       int
	Offset      int
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplaintService{
		store: deps.Store,
		publisher: publisher{
			dispatcher: deps.Dispatcher,
			logger:     logger,
			clock:      deps.Clock,
		},
	}
}

// CreateComplaint opens a complaint against a farmer after checking the zone, branch,
// line and farmer chain is consistent.
func (s *ComplaintService) CreateComplaint(ctx context.Context, actor domain.Actor, input CreateComplaintInput) (*domain.Complaint, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if input.Priority == "" {
		input.Priority = domain.ComplaintPriorityNormal
	}
	if input.Category == "" {
		input.Category = domain.ComplaintCategoryOther
	}
	if err := validateCreate(input); err != nil {
		return nil, err
	}
	if err := authorize(actor, domain.PermComplaintCreate, domain.Scope{ZoneID: input.ZoneID, BranchID: input.BranchID}); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, input); err != nil {
		return nil, err
	}

	now := s.clock.now()
	complaint := &domain.Complaint{
		ID:           uuid.NewString(),
		TicketNumber: policy.TicketNumberAt(now),
		Title:        input.Title,
		Description:  input.Description,
		Category:     input.Category,
		Priority:     input.Priority,
		Status:       domain.ComplaintStatusOpen,
		ZoneID:       input.ZoneID,
		BranchID:     input.BranchID,
		LineID:       input.LineID,
		FarmerID:     input.FarmerID,
		CreatedBy:    actor.ActorID(),
		SLADeadline:  policy.ComputeSLADeadline(input.Priority, now),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := s.store.WithinTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		return uow.Complaints().Create(ctx, complaint)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("complaint created",
		zap.String("complaint_id", complaint.ID),
		zap.String("ticket_number", complaint.TicketNumber),
		zap.String("priority", string(complaint.Priority)))
	s.publish(ctx, events.Event{
		Type:         events.EventComplaintCreated,
		ComplaintID:  complaint.ID,
		TicketNumber: complaint.TicketNumber,
		Actor:        eventActor(actor),
		Payload: events.ComplaintCreatedPayload{
			ZoneID:      complaint.ZoneID,
			BranchID:    complaint.BranchID,
			LineID:      complaint.LineID,
			FarmerID:    complaint.FarmerID,
			Category:    complaint.Category,
			Priority:    complaint.Priority,
			SLADeadline: complaint.SLADeadline,
		},
	})
	return complaint, nil
}

func validateCreate(input CreateComplaintInput) error {
	if input.Title == "" {
		return apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	}
	if !input.Category.Valid() {
		return apperrors.NewValidationError("unknown category", map[string]any{"field": "category", "value": input.Category})
	}
	if !input.Priority.Valid() {
		return apperrors.NewValidationError("unknown priority", map[string]any{"field": "priority", "value": input.Priority})
	}
	for field, val := range map[string]string{
		"farmer_id": input.FarmerID,
		"zone_id":   input.ZoneID,
		"branch_id": input.BranchID,
		"line_id":   input.LineID,
	} {
		if strings.TrimSpace(val) == "" {
			return apperrors.NewValidationError(field+" is required", map[string]any{"field": field})
		}
	}
	return nil
}

func (s *ComplaintService) checkReferences(ctx context.Context, input CreateComplaintInput) error {
	md := s.store.MasterData()
	if _, err := md.GetZone(ctx, input.ZoneID); err != nil {
		return lookupErr(err, "zone", input.ZoneID)
	}
	branch, err := md.GetBranch(ctx, input.BranchID)
	if err != nil {
		return lookupErr(err, "branch", input.BranchID)
	}
	if branch.ZoneID != input.ZoneID {
		return apperrors.NewValidationError("branch does not belong to zone", map[string]any{"branch_id": input.BranchID, "zone_id": input.ZoneID})
	}
	line, err := md.GetLine(ctx, input.LineID)
	if err != nil {
		return lookupErr(err, "line", input.LineID)
	}
	if line.BranchID != input.BranchID {
		return apperrors.NewValidationError("line does not belong to branch", map[string]any{"line_id": input.LineID, "branch_id": input.BranchID})
	}
	farmer, err := md.GetFarmer(ctx, input.FarmerID)
	if err != nil {
		return lookupErr(err, "farmer", input.FarmerID)
	}
	if farmer.ZoneID != input.ZoneID || farmer.BranchID != input.BranchID || farmer.LineID != input.LineID {
		return apperrors.NewValidationError("farmer does not belong to the complaint zone, branch and line", map[string]any{"farmer_id": input.FarmerID})
	}
	return nil
}

// TransitionStatus moves a complaint to target. Any status may move to any other;
// moving to the current status is a no-op that records nothing.
func (s *ComplaintService) TransitionStatus(ctx context.Context, actor domain.Actor, complaintID string, target domain.ComplaintStatus, effectiveDate time.Time) (*domain.Complaint, error) {
	if !target.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"reason": "invalid_status", "value": target})
	}
	if effectiveDate.IsZero() {
		effectiveDate = s.clock.now()
	}

	var (
		complaint *domain.Complaint
		change    *domain.StatusChange
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		var err error
		complaint, err = uow.Complaints().GetForUpdate(ctx, complaintID)
		if err != nil {
			return lookupErr(err, "complaint", complaintID)
		}
		if err := authorize(actor, domain.PermComplaintUpdateStatus, complaint.Scope()); err != nil {
			return err
		}
		if complaint.Status == target {
			return nil
		}
		change, err = s.applyTransition(ctx, uow, actor, complaint, target, effectiveDate, domain.StatusChangeSourceDirect, nil)
		return err
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if change != nil {
		s.announceTransition(ctx, actor, complaint, change)
	}
	return complaint, nil
}

// applyTransition is the single write path for status changes. It re-checks the
// updateStatus permission, writes the complaint with a version check and appends the
// audit entry, all on uow.
func (s *ComplaintService) applyTransition(
	ctx context.Context,
	uow repository.UnitOfWork,
	actor domain.Actor,
	complaint *domain.Complaint,
	target domain.ComplaintStatus,
	effectiveDate time.Time,
	source domain.StatusChangeSource,
	callLogID *string,
) (*domain.StatusChange, error) {
	if err := authorize(actor, domain.PermComplaintUpdateStatus, complaint.Scope()); err != nil {
		return nil, err
	}
	now := s.clock.now()
	from := complaint.Status
	complaint.Status = target
	complaint.UpdatedAt = now
	if target == domain.ComplaintStatusClosed {
		complaint.ClosedAt = &now
	} else {
		complaint.ClosedAt = nil
	}
	if err := uow.Complaints().Update(ctx, complaint); err != nil {
		return nil, lookupErr(err, "complaint", complaint.ID)
	}

	change := &domain.StatusChange{
		ID:            uuid.NewString(),
		ComplaintID:   complaint.ID,
		FromStatus:    from,
		ToStatus:      target,
		EffectiveDate: effectiveDate.UTC(),
		ChangedBy:     actor.ActorID(),
		Source:        source,
		CallLogID:     callLogID,
		CreatedAt:     now,
	}
	if err := uow.History().Create(ctx, change); err != nil {
		return nil, err
	}
	return change, nil
}

func (s *ComplaintService) announceTransition(ctx context.Context, actor domain.Actor, complaint *domain.Complaint, change *domain.StatusChange) {
	s.logger.Info("complaint status changed",
		zap.String("complaint_id", complaint.ID),
		zap.String("ticket_number", complaint.TicketNumber),
		zap.String("from", string(change.FromStatus)),
		zap.String("to", string(change.ToStatus)),
		zap.String("source", string(change.Source)))
	s.publish(ctx, events.Event{
		Type:         events.EventComplaintStatusChanged,
		ComplaintID:  complaint.ID,
		TicketNumber: complaint.TicketNumber,
		Actor:        eventActor(actor),
		Payload: events.ComplaintStatusChangedPayload{
			OldStatus:     change.FromStatus,
			NewStatus:     change.ToStatus,
			EffectiveDate: change.EffectiveDate,
			Source:        change.Source,
			CallLogID:     change.CallLogID,
		},
	})
}

// UpdatePriority changes the priority. The SLA deadline only moves when rederive is set,
// and is then recomputed from the original creation time.
func (s *ComplaintService) UpdatePriority(ctx context.Context, actor domain.Actor, complaintID string, priority domain.ComplaintPriority, rederive bool) (*domain.Complaint, error) {
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"field": "priority", "value": priority})
	}

	var (
		complaint *domain.Complaint
		old       domain.ComplaintPriority
		moved     bool
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		var err error
		complaint, err = uow.Complaints().GetForUpdate(ctx, complaintID)
		if err != nil {
			return lookupErr(err, "complaint", complaintID)
		}
		if err := authorize(actor, domain.PermComplaintEdit, complaint.Scope()); err != nil {
			return err
		}
		old = complaint.Priority
		deadline := complaint.SLADeadline
		if rederive {
			deadline = policy.ComputeSLADeadline(priority, complaint.CreatedAt)
		}
		if old == priority && deadline.Equal(complaint.SLADeadline) {
			return nil
		}
		moved = !deadline.Equal(complaint.SLADeadline)
		complaint.Priority = priority
		complaint.SLADeadline = deadline
		complaint.UpdatedAt = s.clock.now()
		return uow.Complaints().Update(ctx, complaint)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if old != priority || moved {
		s.publish(ctx, events.Event{
			Type:         events.EventComplaintPriorityChanged,
			ComplaintID:  complaint.ID,
			TicketNumber: complaint.TicketNumber,
			Actor:        eventActor(actor),
			Payload: events.ComplaintPriorityChangedPayload{
				OldPriority:   old,
				NewPriority:   complaint.Priority,
				SLADeadline:   complaint.SLADeadline,
				DeadlineMoved: moved,
			},
		})
	}
	return complaint, nil
}

// AssignComplaint sets or clears the assignee. A new assignee must be an active user.
func (s *ComplaintService) AssignComplaint(ctx context.Context, actor domain.Actor, complaintID string, assigneeID *string) (*domain.Complaint, error) {
	if assigneeID != nil {
		user, err := s.store.Users().GetByID(ctx, *assigneeID)
		if err != nil {
			return nil, lookupErr(err, "user", *assigneeID)
		}
		if !user.Active {
			return nil, apperrors.NewValidationError("assignee is inactive", map[string]any{"assignee_id": *assigneeID})
		}
	}

	var (
		complaint *domain.Complaint
		previous  *string
		changed   bool
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		var err error
		complaint, err = uow.Complaints().GetForUpdate(ctx, complaintID)
		if err != nil {
			return lookupErr(err, "complaint", complaintID)
		}
		if err := authorize(actor, domain.PermComplaintAssign, complaint.Scope()); err != nil {
			return err
		}
		previous = complaint.AssigneeID
		if sameRef(previous, assigneeID) {
			return nil
		}
		changed = true
		complaint.AssigneeID = assigneeID
		complaint.UpdatedAt = s.clock.now()
		return uow.Complaints().Update(ctx, complaint)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if changed {
		s.publish(ctx, events.Event{
			Type:         events.EventComplaintAssigned,
			ComplaintID:  complaint.ID,
			TicketNumber: complaint.TicketNumber,
			Actor:        eventActor(actor),
			Payload: events.ComplaintAssignedPayload{
				OldAssigneeID: previous,
				NewAssigneeID: complaint.AssigneeID,
			},
		})
	}
	return complaint, nil
}

func sameRef(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// GetComplaint returns one complaint the actor may view.
func (s *ComplaintService) GetComplaint(ctx context.Context, actor domain.Actor, complaintID string) (*domain.Complaint, error) {
	complaint, err := s.store.Complaints().GetByID(ctx, complaintID)
	if err != nil {
		return nil, lookupErr(err, "complaint", complaintID)
	}
	if err := authorize(actor, domain.PermComplaintView, complaint.Scope()); err != nil {
		return nil, err
	}
	return complaint, nil
}

// GetComplaintByTicketNumber looks a complaint up by its human-facing ticket number.
func (s *ComplaintService) GetComplaintByTicketNumber(ctx context.Context, actor domain.Actor, number string) (*domain.Complaint, error) {
	complaint, err := s.store.Complaints().GetByTicketNumber(ctx, number)
	if err != nil {
		return nil, lookupErr(err, "complaint", number)
	}
	if err := authorize(actor, domain.PermComplaintView, complaint.Scope()); err != nil {
		return nil, err
	}
	return complaint, nil
}

// ListComplaints returns complaints matching filter within the actor's view scope.
// A requested zone or branch outside that scope yields an empty result, and every row
// is re-authorized before it is returned.
func (s *ComplaintService) ListComplaints(ctx context.Context, actor domain.Actor, filter ComplaintListFilter) ([]domain.Complaint, error) {
	restriction, ok := policy.RestrictionFor(actor, domain.PermComplaintView)
	if !ok {
		return nil, authorize(actor, domain.PermComplaintView, domain.Scope{})
	}

	repoFilter := repository.ComplaintFilter{
		ZoneID:      filter.ZoneID,
		BranchID:    filter.BranchID,
		LineID:      filter.LineID,
		FarmerID:    filter.FarmerID,
		AssigneeID:  filter.AssigneeID,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		Categories:  filter.Categories,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	if !narrow(&repoFilter.ZoneID, restriction.ZoneID) || !narrow(&repoFilter.BranchID, restriction.BranchID) {
		return []domain.Complaint{}, nil
	}
	if filter.Breached {
		now := s.clock.now()
		repoFilter.BreachedAt = &now
	}

	rows, err := s.store.Complaints().List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	visible := make([]domain.Complaint, 0, len(rows))
	for _, c := range rows {
		if policy.Authorize(actor, domain.PermComplaintView, c.Scope()).Allowed {
			visible = append(visible, c)
		}
	}
	return visible, nil
}

// narrow intersects a requested id with the allowed one. It reports false when the
// intersection is empty.
func narrow(requested **string, allowed *string) bool {
	if allowed == nil {
		return true
	}
	if *requested != nil && **requested != *allowed {
		return false
	}
	*requested = allowed
	return true
}

// ListStatusHistory returns the audit trail of a complaint, oldest first.
func (s *ComplaintService) ListStatusHistory(ctx context.Context, actor domain.Actor, complaintID string) ([]domain.StatusChange, error) {
	if _, err := s.GetComplaint(ctx, actor, complaintID); err != nil {
		return nil, err
	}
	history, err := s.store.History().ListByComplaint(ctx, complaintID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return history, nil
}
