package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateUserRequest payload for admin user provisioning.
type CreateUserRequest struct {
	Name        string              `json:"name"`
	Email       string              `json:"email"`
	Password    string              `json:"password"`
	Role        domain.Role         `json:"role"`
	ZoneID      *string             `json:"zone_id"`
	BranchID    *string             `json:"branch_id"`
	Permissions []domain.Permission `json:"permissions"`
}

// GrantPermissionsRequest payload.
type GrantPermissionsRequest struct {
	Permissions []domain.Permission `json:"permissions"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"role"`
	ZoneID   *string     `json:"zone_id"`
	BranchID *string     `json:"branch_id"`
	Active   bool        `json:"active"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
		ZoneID:   u.ZoneID,
		BranchID: u.BranchID,
		Active:   u.Active,
	}
}
