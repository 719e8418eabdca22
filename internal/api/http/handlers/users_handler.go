package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/service"
)

// UsersHandler exposes admin user provisioning.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// Create POST /admin/users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.CreateUser(c.UserContext(), actor, service.CreateUserInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
		ZoneID:      req.ZoneID,
		BranchID:    req.BranchID,
		Permissions: req.Permissions,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// GrantPermissions POST /admin/users/:id/permissions.
func (h *UsersHandler) GrantPermissions(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.GrantPermissionsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	granted, err := h.users.GrantPermissions(c.UserContext(), actor, c.Params("id"), req.Permissions)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"user_id": c.Params("id"), "permissions": granted}})
}
