package events

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintCreated         EventType = "complaint_created"
	EventComplaintStatusChanged   EventType = "complaint_status_changed"
	EventComplaintPriorityChanged EventType = "complaint_priority_changed"
	EventComplaintAssigned        EventType = "complaint_assigned"
	EventComplaintCallLogged      EventType = "complaint_call_logged"
	EventComplaintSLABreached     EventType = "complaint_sla_breached"
)

// AllEventTypes lists every event the services publish.
func AllEventTypes() []EventType {
	return []EventType{
		EventComplaintCreated,
		EventComplaintStatusChanged,
		EventComplaintPriorityChanged,
		EventComplaintAssigned,
		EventComplaintCallLogged,
		EventComplaintSLABreached,
	}
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	ComplaintID  string    `json:"complaint_id"`
	TicketNumber string    `json:"ticket_number"`
	Actor        Actor     `json:"actor"`
	Timestamp    time.Time `json:"timestamp"`
	Payload      any       `json:"payload"`
}

// ComplaintCreatedPayload payload.
type ComplaintCreatedPayload struct {
	ZoneID      string                   `json:"zone_id"`
	BranchID    string                   `json:"branch_id"`
	LineID      string                   `json:"line_id"`
	FarmerID    string                   `json:"farmer_id"`
	Category    domain.ComplaintCategory `json:"category"`
	Priority    domain.ComplaintPriority `json:"priority"`
	SLADeadline time.Time                `json:"sla_deadline"`
}

// ComplaintStatusChangedPayload payload.
type ComplaintStatusChangedPayload struct {
	OldStatus     domain.ComplaintStatus    `json:"old_status"`
	NewStatus     domain.ComplaintStatus    `json:"new_status"`
	EffectiveDate time.Time                 `json:"effective_date"`
	Source        domain.StatusChangeSource `json:"source"`
	CallLogID     *string                   `json:"call_log_id,omitempty"`
}

// ComplaintPriorityChangedPayload payload.
type ComplaintPriorityChangedPayload struct {
	OldPriority   domain.ComplaintPriority `json:"old_priority"`
	NewPriority   domain.ComplaintPriority `json:"new_priority"`
	SLADeadline   time.Time                `json:"sla_deadline"`
	DeadlineMoved bool                     `json:"deadline_moved"`
}

// ComplaintAssignedPayload payload.
type ComplaintAssignedPayload struct {
	OldAssigneeID *string `json:"old_assignee_id,omitempty"`
	NewAssigneeID *string `json:"new_assignee_id,omitempty"`
}

// ComplaintCallLoggedPayload payload.
type ComplaintCallLoggedPayload struct {
	CallLogID       string                 `json:"call_log_id"`
	Outcome         domain.CallOutcome     `json:"outcome"`
	DurationMinutes int                    `json:"duration_minutes"`
	AssertedStatus  domain.ComplaintStatus `json:"asserted_status"`
	StatusChanged   bool                   `json:"status_changed"`
}

// ComplaintSLABreachedPayload payload.
type ComplaintSLABreachedPayload struct {
	Status      domain.ComplaintStatus   `json:"status"`
	Priority    domain.ComplaintPriority `json:"priority"`
	SLADeadline time.Time                `json:"sla_deadline"`
	DetectedAt  time.Time                `json:"detected_at"`
}
