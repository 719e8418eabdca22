package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/service"
)

// CallLogsHandler exposes call log endpoints.
type CallLogsHandler struct {
	calls *service.CallLogService
}

// NewCallLogsHandler constructs handler.
func NewCallLogsHandler(calls *service.CallLogService) *CallLogsHandler {
	return &CallLogsHandler{calls: calls}
}

// Record POST /complaints/:id/call-logs.
func (h *CallLogsHandler) Record(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.RecordCallRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	followUp, err := parseTimeField("next_follow_up_date", req.NextFollowUpDate)
	if err != nil {
		return err
	}
	effective, err := parseTimeField("asserted_status_effective_date", req.AssertedStatusEffectiveDate)
	if err != nil {
		return err
	}
	var effectiveDate time.Time
	if effective != nil {
		effectiveDate = *effective
	}

	log, err := h.calls.RecordCall(c.UserContext(), actor, service.RecordCallInput{
		ComplaintID:                 c.Params("id"),
		Outcome:                     req.Outcome,
		Remarks:                     req.Remarks,
		DurationMinutes:             req.DurationMinutes,
		NextFollowUpDate:            followUp,
		AssertedStatus:              req.AssertedStatus,
		AssertedStatusEffectiveDate: effectiveDate,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCallLogResponse(log)})
}

// List GET /complaints/:id/call-logs.
func (h *CallLogsHandler) List(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	logs, err := h.calls.ListCallLogs(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.CallLogResponse, 0, len(logs))
	for i := range logs {
		items = append(items, dto.NewCallLogResponse(&logs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DefaultStatus GET /complaints/:id/default-status.
func (h *CallLogsHandler) DefaultStatus(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	status, err := h.calls.DefaultStatusFor(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": status}})
}
