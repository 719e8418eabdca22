package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/policy"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// ComplaintsHandler exposes the complaint lifecycle endpoints.
type ComplaintsHandler struct {
	complaints *service.ComplaintService
	now        func() time.Time
}

// NewComplaintsHandler constructs handler. now is used to compute the breached flag.
func NewComplaintsHandler(complaints *service.ComplaintService, now func() time.Time) *ComplaintsHandler {
	if now == nil {
		now = time.Now
	}
	return &ComplaintsHandler{complaints: complaints, now: now}
}

// Create POST /complaints.
func (h *ComplaintsHandler) Create(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateComplaintRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	complaint, err := h.complaints.CreateComplaint(c.UserContext(), actor, service.CreateComplaintInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		FarmerID:    req.FarmerID,
		ZoneID:      req.ZoneID,
		BranchID:    req.BranchID,
		LineID:      req.LineID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": h.response(complaint)})
}

// List GET /complaints.
func (h *ComplaintsHandler) List(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	filter, err := parseComplaintFilter(c)
	if err != nil {
		return err
	}
	complaints, err := h.complaints.ListComplaints(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.ComplaintResponse, 0, len(complaints))
	for i := range complaints {
		items = append(items, h.response(&complaints[i]))
	}
	return c.JSON(fiber.Map{
		"data": items,
		"meta": fiber.Map{"limit": filter.Limit, "offset": filter.Offset, "count": len(items)},
	})
}

// Get GET /complaints/:id.
func (h *ComplaintsHandler) Get(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	complaint, err := h.complaints.GetComplaint(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.response(complaint)})
}

// GetByTicketNumber GET /complaints/by-ticket/:number.
func (h *ComplaintsHandler) GetByTicketNumber(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	complaint, err := h.complaints.GetComplaintByTicketNumber(c.UserContext(), actor, c.Params("number"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.response(complaint)})
}

// TransitionStatus POST /complaints/:id/status.
func (h *ComplaintsHandler) TransitionStatus(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.TransitionStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	effective, err := parseTimeField("effective_date", req.EffectiveDate)
	if err != nil {
		return err
	}
	var effectiveDate time.Time
	if effective != nil {
		effectiveDate = *effective
	}
	complaint, err := h.complaints.TransitionStatus(c.UserContext(), actor, c.Params("id"), req.Status, effectiveDate)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.response(complaint)})
}

// UpdatePriority PATCH /complaints/:id/priority.
func (h *ComplaintsHandler) UpdatePriority(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdatePriorityRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	complaint, err := h.complaints.UpdatePriority(c.UserContext(), actor, c.Params("id"), req.Priority, req.Rederive)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.response(complaint)})
}

// Assign POST /complaints/:id/assign.
func (h *ComplaintsHandler) Assign(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.AssignComplaintRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	complaint, err := h.complaints.AssignComplaint(c.UserContext(), actor, c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.response(complaint)})
}

// History GET /complaints/:id/history.
func (h *ComplaintsHandler) History(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	history, err := h.complaints.ListStatusHistory(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.StatusChangeResponse, 0, len(history))
	for i := range history {
		items = append(items, dto.NewStatusChangeResponse(&history[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func (h *ComplaintsHandler) response(c *domain.Complaint) dto.ComplaintResponse {
	return dto.ComplaintResponse{
		ID:           c.ID,
		TicketNumber: c.TicketNumber,
		Title:        c.Title,
		Description:  c.Description,
		Category:     c.Category,
		Priority:     c.Priority,
		Status:       c.Status,
		ZoneID:       c.ZoneID,
		BranchID:     c.BranchID,
		LineID:       c.LineID,
		FarmerID:     c.FarmerID,
		AssigneeID:   c.AssigneeID,
		CreatedBy:    c.CreatedBy,
		SLADeadline:  c.SLADeadline,
		Breached:     policy.IsBreached(c, h.now()),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		ClosedAt:     c.ClosedAt,
	}
}

func parseComplaintFilter(c *fiber.Ctx) (service.ComplaintListFilter, error) {
	filter := service.ComplaintListFilter{
		ZoneID:     optional(c.Query("zone_id")),
		BranchID:   optional(c.Query("branch_id")),
		LineID:     optional(c.Query("line_id")),
		FarmerID:   optional(c.Query("farmer_id")),
		AssigneeID: optional(c.Query("assignee_id")),
		SearchTerm: optional(c.Query("search")),
		Breached:   c.QueryBool("breached", false),
	}
	for _, s := range parseList(c.Query("status")) {
		status := domain.ComplaintStatus(s)
		if !status.Valid() {
			return filter, apperrors.NewValidationError("invalid status", map[string]any{"field": "status", "value": s})
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	for _, p := range parseList(c.Query("priority")) {
		priority := domain.ComplaintPriority(p)
		if !priority.Valid() {
			return filter, apperrors.NewValidationError("unknown priority", map[string]any{"field": "priority", "value": p})
		}
		filter.Priorities = append(filter.Priorities, priority)
	}
	for _, cat := range parseList(c.Query("category")) {
		category := domain.ComplaintCategory(cat)
		if !category.Valid() {
			return filter, apperrors.NewValidationError("unknown category", map[string]any{"field": "category", "value": cat})
		}
		filter.Categories = append(filter.Categories, category)
	}
	var err error
	if filter.CreatedFrom, err = parseTimeField("created_from", c.Query("created_from")); err != nil {
		return filter, err
	}
	if filter.CreatedTo, err = parseEndTimeField("created_to", c.Query("created_to")); err != nil {
		return filter, err
	}

	page := parseInt(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	pageSize := parseInt(c.Query("page_size"), 20)
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter, nil
}
