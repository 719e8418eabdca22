package policy

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

const (
	criticalWindow = 30 * time.Minute
	urgentWindow   = 2 * time.Hour
	normalWindow   = 8 * time.Hour
)

// SLAWindow returns the resolution window for a priority.
// Unknown priorities get the normal window so no complaint is left without a deadline.
func SLAWindow(priority domain.ComplaintPriority) time.Duration {
	switch priority {
	case domain.ComplaintPriorityCritical:
		return criticalWindow
	case domain.ComplaintPriorityUrgent:
		return urgentWindow
	default:
		return normalWindow
	}
}

// ComputeSLADeadline returns the deadline for a complaint created at createdAt.
func ComputeSLADeadline(priority domain.ComplaintPriority, createdAt time.Time) time.Time {
	return createdAt.Add(SLAWindow(priority))
}

// IsBreached reports whether an unresolved complaint is past its deadline.
// Closed complaints are never breached, whenever they were closed.
func IsBreached(complaint *domain.Complaint, now time.Time) bool {
	if complaint == nil {
		return false
	}
	return now.After(complaint.SLADeadline) && complaint.Status.Unresolved()
}
