package handler

import (
	"time"

	"github.com/unievents/eventhub-api/internal/core/domain"
	"github.com/unievents/eventhub-api/internal/core/ports"
)

// --- Requests ---

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=USER ORGANIZER ADMIN"`
}

type listUsersQuery struct {
	Page  int    `query:"page" validate:"omitempty,min=1,max=100000"`
	Limit int    `query:"limit" validate:"omitempty,min=1"`
	Role  string `query:"role" validate:"omitempty,oneof=USER ORGANIZER ADMIN"`
}

// --- Responses ---

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type tokenResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

type principalResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type listUsersResponse struct {
	Items      []userResponse `json:"items"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}

type errorBody struct {
	Error string `json:"error"`
}

// --- Mapping ---

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt.UTC(),
	}
}

func toListUsersResponse(r *ports.ListUsersResult) listUsersResponse {
	items := make([]userResponse, 0, len(r.Items))
	for _, u := range r.Items {
		items = append(items, toUserResponse(u))
	}
	return listUsersResponse{
		Items:      items,
		Total:      r.Total,
		Page:       r.Page,
		Limit:      r.Limit,
		TotalPages: r.TotalPages,
	}
}
