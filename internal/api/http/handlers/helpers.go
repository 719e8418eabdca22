package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

func currentActor(c *fiber.Ctx) (domain.Actor, error) {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return actor, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

const dateLayout = "2006-01-02"

// parseTime accepts RFC 3339 timestamps and plain dates (midnight UTC).
func parseTime(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseTimeField(field, value string) (*time.Time, error) {
	t, err := parseTime(value)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid date", map[string]any{"field": field, "value": value})
	}
	return t, nil
}

// parseEndTimeField is parseTimeField for inclusive upper bounds: a plain date covers
// the whole day, up to the last microsecond before the next midnight.
func parseEndTimeField(field, value string) (*time.Time, error) {
	t, err := parseTimeField(field, value)
	if err != nil || t == nil {
		return t, err
	}
	if _, dateErr := time.Parse(dateLayout, strings.TrimSpace(value)); dateErr == nil {
		end := t.AddDate(0, 0, 1).Add(-time.Microsecond)
		return &end, nil
	}
	return t, nil
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
