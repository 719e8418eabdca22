package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// CallLogService records phone follow-ups. A call asserting a status other than the
// complaint's current one drives a lifecycle transition in the same transaction.
type CallLogService struct {
	store     repository.Store
	lifecycle *ComplaintService
	publisher
}

// CallLogDependencies bundles collaborators for the call log service.
type CallLogDependencies struct {
	Store      repository.Store
	Complaints *ComplaintService
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      Clock
}

// RecordCallInput describes one phone contact attempt.
type RecordCallInput struct {
	ComplaintID                 string
	Outcome                     domain.CallOutcome
	Remarks                     string
	DurationMinutes             int
	NextFollowUpDate            *time.Time
	AssertedStatus              domain.ComplaintStatus
	AssertedStatusEffectiveDate time.Time
}

// NewCallLogService constructs the service.
func NewCallLogService(deps CallLogDependencies) *CallLogService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CallLogService{
		store:     deps.Store,
		lifecycle: deps.Complaints,
		publisher: publisher{
			dispatcher: deps.Dispatcher,
			logger:     logger,
			clock:      deps.Clock,
		},
	}
}

// RecordCall appends a call log. When the asserted status differs from the stored one the
// complaint is transitioned too; the log and the transition commit or fail together.
func (s *CallLogService) RecordCall(ctx context.Context, actor domain.Actor, input RecordCallInput) (*domain.CallLog, error) {
	if err := validateCall(input); err != nil {
		return nil, err
	}
	now := s.clock.now()
	effective := input.AssertedStatusEffectiveDate
	if effective.IsZero() {
		effective = now
	}

	var (
		complaint *domain.Complaint
		log       *domain.CallLog
		change    *domain.StatusChange
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		var err error
		complaint, err = uow.Complaints().GetForUpdate(ctx, input.ComplaintID)
		if err != nil {
			return lookupErr(err, "complaint", input.ComplaintID)
		}
		cascades := input.AssertedStatus != complaint.Status
		required := domain.PermComplaintEdit
		if cascades {
			required = domain.PermComplaintUpdateStatus
		}
		if err := authorize(actor, required, complaint.Scope()); err != nil {
			return err
		}

		log = &domain.CallLog{
			ID:                          uuid.NewString(),
			ComplaintID:                 complaint.ID,
			Outcome:                     input.Outcome,
			Remarks:                     strings.TrimSpace(input.Remarks),
			DurationMinutes:             input.DurationMinutes,
			NextFollowUpDate:            utcPtr(input.NextFollowUpDate),
			AssertedStatus:              input.AssertedStatus,
			AssertedStatusEffectiveDate: effective.UTC(),
			CallerID:                    actor.ActorID(),
			CreatedAt:                   now,
		}
		if err := uow.CallLogs().Create(ctx, log); err != nil {
			return err
		}
		if cascades {
			change, err = s.transitionFromCall(ctx, uow, actor, complaint, log)
		}
		return err
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("call logged",
		zap.String("complaint_id", complaint.ID),
		zap.String("ticket_number", complaint.TicketNumber),
		zap.String("call_log_id", log.ID),
		zap.String("outcome", string(log.Outcome)),
		zap.Bool("status_changed", change != nil))
	s.publish(ctx, events.Event{
		Type:         events.EventComplaintCallLogged,
		ComplaintID:  complaint.ID,
		TicketNumber: complaint.TicketNumber,
		Actor:        eventActor(actor),
		Payload: events.ComplaintCallLoggedPayload{
			CallLogID:       log.ID,
			Outcome:         log.Outcome,
			DurationMinutes: log.DurationMinutes,
			AssertedStatus:  log.AssertedStatus,
			StatusChanged:   change != nil,
		},
	})
	if change != nil {
		s.lifecycle.announceTransition(ctx, actor, complaint, change)
	}
	return log, nil
}

// transitionFromCall is the only place a call log drives a status change. It moves the
// complaint to the status the caller asserted, effective from the asserted date, and
// links the audit entry to the call log.
func (s *CallLogService) transitionFromCall(ctx context.Context, uow repository.UnitOfWork, actor domain.Actor, complaint *domain.Complaint, log *domain.CallLog) (*domain.StatusChange, error) {
	callLogID := log.ID
	return s.lifecycle.applyTransition(ctx, uow, actor, complaint, log.AssertedStatus, log.AssertedStatusEffectiveDate, domain.StatusChangeSourceCallLog, &callLogID)
}

func validateCall(input RecordCallInput) error {
	if input.DurationMinutes < 0 {
		return apperrors.NewValidationError("duration must not be negative", map[string]any{"field": "duration_minutes", "reason": "invalid_input"})
	}
	if !input.Outcome.Valid() {
		return apperrors.NewValidationError("unknown call outcome", map[string]any{"field": "outcome", "value": input.Outcome})
	}
	if !input.AssertedStatus.Valid() {
		return apperrors.NewValidationError("invalid status", map[string]any{"field": "asserted_status", "reason": "invalid_status", "value": input.AssertedStatus})
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

// ListCallLogs returns the call logs of a complaint, oldest first.
func (s *CallLogService) ListCallLogs(ctx context.Context, actor domain.Actor, complaintID string) ([]domain.CallLog, error) {
	if _, err := s.lifecycle.GetComplaint(ctx, actor, complaintID); err != nil {
		return nil, err
	}
	logs, err := s.store.CallLogs().ListByComplaint(ctx, complaintID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return logs, nil
}

// DefaultStatusFor is the status a new call form should be pre-filled with: the status
// asserted by the latest call, or the complaint's live status when nobody has called yet.
func (s *CallLogService) DefaultStatusFor(ctx context.Context, actor domain.Actor, complaintID string) (domain.ComplaintStatus, error) {
	complaint, err := s.lifecycle.GetComplaint(ctx, actor, complaintID)
	if err != nil {
		return "", err
	}
	latest, err := s.store.CallLogs().Latest(ctx, complaintID)
	if errors.Is(err, repository.ErrNotFound) {
		return complaint.Status, nil
	}
	if err != nil {
		return "", apperrors.MapError(err)
	}
	return latest.AssertedStatus, nil
}
