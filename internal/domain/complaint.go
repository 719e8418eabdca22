package domain

import "time"

// ComplaintStatus enumerates lifecycle states for complaints.
// Values are persisted and exported as-is.
type ComplaintStatus string

const (
	ComplaintStatusOpen     ComplaintStatus = "open"
	ComplaintStatusProgress ComplaintStatus = "progress"
	ComplaintStatusClosed   ComplaintStatus = "closed"
	ComplaintStatusReopen   ComplaintStatus = "reopen"
)

// Valid reports whether s is one of the four lifecycle states.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintStatusOpen, ComplaintStatusProgress, ComplaintStatusClosed, ComplaintStatusReopen:
		return true
	}
	return false
}

// Unresolved reports whether the status still counts against the SLA.
func (s ComplaintStatus) Unresolved() bool {
	return s == ComplaintStatusOpen || s == ComplaintStatusProgress || s == ComplaintStatusReopen
}

// UnresolvedStatuses lists the statuses eligible for SLA breach.
func UnresolvedStatuses() []ComplaintStatus {
	return []ComplaintStatus{ComplaintStatusOpen, ComplaintStatusProgress, ComplaintStatusReopen}
}

// ComplaintPriority enumerates SLA urgency.
type ComplaintPriority string

const (
	ComplaintPriorityNormal   ComplaintPriority = "normal"
	ComplaintPriorityUrgent   ComplaintPriority = "urgent"
	ComplaintPriorityCritical ComplaintPriority = "critical"
)

// Valid reports whether p is a known priority.
func (p ComplaintPriority) Valid() bool {
	switch p {
	case ComplaintPriorityNormal, ComplaintPriorityUrgent, ComplaintPriorityCritical:
		return true
	}
	return false
}

// ComplaintCategory classifies a complaint. The engine never branches on it.
type ComplaintCategory string

const (
	ComplaintCategoryEquipment ComplaintCategory = "equipment"
	ComplaintCategoryQuality   ComplaintCategory = "quality"
	ComplaintCategoryPayment   ComplaintCategory = "payment"
	ComplaintCategoryService   ComplaintCategory = "service"
	ComplaintCategoryOther     ComplaintCategory = "other"
)

// Valid reports whether c belongs to the fixed category set.
func (c ComplaintCategory) Valid() bool {
	switch c {
	case ComplaintCategoryEquipment, ComplaintCategoryQuality, ComplaintCategoryPayment,
		ComplaintCategoryService, ComplaintCategoryOther:
		return true
	}
	return false
}

// Complaint is the ticket aggregate. Complaints are never deleted.
type Complaint struct {
	ID           string
	TicketNumber string
	Title        string
	Description  string
	Category     ComplaintCategory
	Priority     ComplaintPriority
	Status       ComplaintStatus
	ZoneID       string
	BranchID     string
	LineID       string
	FarmerID     string
	AssigneeID   *string
	CreatedBy    string
	SLADeadline  time.Time
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ClosedAt     *time.Time
}

// Scope returns the zone/branch the complaint is authorized against.
func (c *Complaint) Scope() Scope {
	return Scope{ZoneID: c.ZoneID, BranchID: c.BranchID}
}
