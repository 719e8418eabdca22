package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// RecordCallRequest payload. Dates accept RFC 3339 or YYYY-MM-DD.
type RecordCallRequest struct {
	Outcome                     domain.CallOutcome     `json:"outcome"`
	Remarks                     string                 `json:"remarks"`
	DurationMinutes             int                    `json:"duration_minutes"`
	NextFollowUpDate            string                 `json:"next_follow_up_date"`
	AssertedStatus              domain.ComplaintStatus `json:"asserted_status"`
	AssertedStatusEffectiveDate string                 `json:"asserted_status_effective_date"`
}

// CallLogResponse is the public view of a call log.
type CallLogResponse struct {
	ID                          string                 `json:"id"`
	ComplaintID                 string                 `json:"complaint_id"`
	Outcome                     domain.CallOutcome     `json:"outcome"`
	Remarks                     string                 `json:"remarks"`
	DurationMinutes             int                    `json:"duration_minutes"`
	NextFollowUpDate            *time.Time             `json:"next_follow_up_date"`
	AssertedStatus              domain.ComplaintStatus `json:"asserted_status"`
	AssertedStatusEffectiveDate time.Time              `json:"asserted_status_effective_date"`
	CallerID                    string                 `json:"caller_id"`
	CreatedAt                   time.Time              `json:"created_at"`
}

// NewCallLogResponse maps a domain call log.
func NewCallLogResponse(l *domain.CallLog) CallLogResponse {
	return CallLogResponse{
		ID:                          l.ID,
		ComplaintID:                 l.ComplaintID,
		Outcome:                     l.Outcome,
		Remarks:                     l.Remarks,
		DurationMinutes:             l.DurationMinutes,
		NextFollowUpDate:            l.NextFollowUpDate,
		AssertedStatus:              l.AssertedStatus,
		AssertedStatusEffectiveDate: l.AssertedStatusEffectiveDate,
		CallerID:                    l.CallerID,
		CreatedAt:                   l.CreatedAt,
	}
}
