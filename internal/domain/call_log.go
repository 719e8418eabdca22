package domain

import "time"

// CallOutcome enumerates the result of a phone contact attempt.
type CallOutcome string

const (
	CallOutcomeConnected   CallOutcome = "connected"
	CallOutcomeNoAnswer    CallOutcome = "no_answer"
	CallOutcomeBusy        CallOutcome = "busy"
	CallOutcomeWrongNumber CallOutcome = "wrong_number"
)

// Valid reports whether o is a known outcome.
func (o CallOutcome) Valid() bool {
	switch o {
	case CallOutcomeConnected, CallOutcomeNoAnswer, CallOutcomeBusy, CallOutcomeWrongNumber:
		return true
	}
	return false
}

// CallLog is an immutable record of one phone contact attempt.
type CallLog struct {
	ID                          string
	ComplaintID                 string
	Outcome                     CallOutcome
	Remarks                     string
	DurationMinutes             int
	NextFollowUpDate            *time.Time
	AssertedStatus              ComplaintStatus
	AssertedStatusEffectiveDate time.Time
	CallerID                    string
	CreatedAt                   time.Time
}
