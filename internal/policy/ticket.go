package policy

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const ticketPrefix = "CMP"

// GenerateTicketNumber returns a new ticket number stamped with the current time.
func GenerateTicketNumber() string {
	return TicketNumberAt(time.Now())
}

// TicketNumberAt returns a ticket number of the form CMP-YYYYMMDDHHMMSS-XXXXXXXXXXXX.
// The suffix is 48 random bits from a v4 UUID, so uniqueness holds without a lookup.
func TicketNumberAt(createdAt time.Time) string {
	random := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	return ticketPrefix + "-" + createdAt.UTC().Format("20060102150405") + "-" + random
}
