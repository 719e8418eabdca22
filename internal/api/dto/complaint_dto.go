package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// CreateComplaintRequest payload.
type CreateComplaintRequest struct {
	Title       string                   `json:"title"`
	Description string                   `json:"description"`
	Category    domain.ComplaintCategory `json:"category"`
	Priority    domain.ComplaintPriority `json:"priority"`
	FarmerID    string                   `json:"farmer_id"`
	ZoneID      string                   `json:"zone_id"`
	BranchID    string                   `json:"branch_id"`
	LineID      string                   `json:"line_id"`
}

// TransitionStatusRequest payload. EffectiveDate accepts RFC 3339 or YYYY-MM-DD.
type TransitionStatusRequest struct {
	Status        domain.ComplaintStatus `json:"status"`
	EffectiveDate string                 `json:"effective_date"`
}

// UpdatePriorityRequest payload.
type UpdatePriorityRequest struct {
	Priority domain.ComplaintPriority `json:"priority"`
	Rederive bool                     `json:"rederive_sla"`
}

// AssignComplaintRequest payload. A null assignee clears the assignment.
type AssignComplaintRequest struct {
	AssigneeID *string `json:"assignee_id"`
}

// ComplaintResponse is the public view of a complaint. Breached is computed at read time.
type ComplaintResponse struct {
	ID           string                   `json:"id"`
	TicketNumber string                   `json:"ticket_number"`
	Title        string                   `json:"title"`
	Description  string                   `json:"description"`
	Category     domain.ComplaintCategory `json:"category"`
	Priority     domain.ComplaintPriority `json:"priority"`
	Status       domain.ComplaintStatus   `json:"status"`
	ZoneID       string                   `json:"zone_id"`
	BranchID     string                   `json:"branch_id"`
	LineID       string                   `json:"line_id"`
	FarmerID     string                   `json:"farmer_id"`
	AssigneeID   *string                  `json:"assignee_id"`
	CreatedBy    string                   `json:"created_by"`
	SLADeadline  time.Time                `json:"sla_deadline"`
	Breached     bool                     `json:"breached"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
	ClosedAt     *time.Time               `json:"closed_at"`
}

// StatusChangeResponse is one audit trail entry.
type StatusChangeResponse struct {
	ID            string                    `json:"id"`
	FromStatus    domain.ComplaintStatus    `json:"from_status"`
	ToStatus      domain.ComplaintStatus    `json:"to_status"`
	EffectiveDate time.Time                 `json:"effective_date"`
	ChangedBy     string                    `json:"changed_by"`
	Source        domain.StatusChangeSource `json:"source"`
	CallLogID     *string                   `json:"call_log_id"`
	CreatedAt     time.Time                 `json:"created_at"`
}

// NewStatusChangeResponse maps a history entry.
func NewStatusChangeResponse(s *domain.StatusChange) StatusChangeResponse {
	return StatusChangeResponse{
		ID:            s.ID,
		FromStatus:    s.FromStatus,
		ToStatus:      s.ToStatus,
		EffectiveDate: s.EffectiveDate,
		ChangedBy:     s.ChangedBy,
		Source:        s.Source,
		CallLogID:     s.CallLogID,
		CreatedAt:     s.CreatedAt,
	}
}
