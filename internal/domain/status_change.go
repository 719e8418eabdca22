package domain

import "time"

// StatusChangeSource records which operation applied a transition.
type StatusChangeSource string

const (
	StatusChangeSourceDirect  StatusChangeSource = "direct"
	StatusChangeSourceCallLog StatusChangeSource = "call_log"
)

// StatusChange is an immutable audit trail entry for one applied transition.
type StatusChange struct {
	ID            string
	ComplaintID   string
	FromStatus    ComplaintStatus
	ToStatus      ComplaintStatus
	EffectiveDate time.Time
	ChangedBy     string
	Source        StatusChangeSource
	CallLogID     *string
	CreatedAt     time.Time
}
