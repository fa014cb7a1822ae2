package dto

import (
	"time"

	"github.com/SscSPs/budget_approval_app/internal/core/domain"
)

// CreateUserRequest defines the data needed to create a user.
type CreateUserRequest struct {
	Name              string   `json:"name" binding:"required"`
	Email             string   `json:"email" binding:"required,email"`
	Password          string   `json:"password" binding:"required,min=8"`
	IsAdmin           bool     `json:"isAdmin"`
	CanViewAllBudgets bool     `json:"canViewAllBudgets"`
	LevelIDs          []string `json:"levelIDs,omitempty" binding:"omitempty,dive,required"`
}

// UpdateUserRequest defines the data allowed for updating a user.
// Using pointers to differentiate between omitted fields and zero-value fields.
type UpdateUserRequest struct {
	Name              *string `json:"name,omitempty" binding:"omitempty,min=1"`
	IsAdmin           *bool   `json:"isAdmin,omitempty"`
	IsActive          *bool   `json:"isActive,omitempty"`
	CanViewAllBudgets *bool   `json:"canViewAllBudgets,omitempty"`
}

// ReplaceIDsRequest replaces a user's levels, allow-list or personalized flow.
type ReplaceIDsRequest struct {
	IDs []string `json:"ids" binding:"omitempty,dive,required"`
}

// ListUsersParams defines query parameters for listing users.
type ListUsersParams struct {
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

// UserResponse defines the data returned for a user.
type UserResponse struct {
	UserID            string    `json:"userID"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	IsAdmin           bool      `json:"isAdmin"`
	IsActive          bool      `json:"isActive"`
	CanViewAllBudgets bool      `json:"canViewAllBudgets"`
	CreatedAt         time.Time `json:"createdAt"`
}

// ActorResponse is the acting user with its levels and allow-list.
type ActorResponse struct {
	UserResponse
	Levels              []domain.Level `json:"levels"`
	PermittedRequesters []string       `json:"permittedRequesters"`
}

// ListUsersResponse wraps the list of users.
type ListUsersResponse struct {
	Users []UserResponse `json:"users"`
}

// UserFlowResponse is a requester's personalized flow in order.
type UserFlowResponse struct {
	RequesterID string                 `json:"requesterID"`
	Entries     []domain.UserFlowEntry `json:"entries"`
}

func ToUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		UserID:            u.UserID,
		Name:              u.Name,
		Email:             u.Email,
		IsAdmin:           u.IsAdmin,
		IsActive:          u.IsActive,
		CanViewAllBudgets: u.CanViewAllBudgets,
		CreatedAt:         u.CreatedAt,
	}
}

func ToActorResponse(a *domain.Actor) ActorResponse {
	resp := ActorResponse{
		UserResponse:        ToUserResponse(&a.User),
		Levels:              a.Levels,
		PermittedRequesters: nonNil(a.PermittedRequesters),
	}
	if resp.Levels == nil {
		resp.Levels = []domain.Level{}
	}
	return resp
}

// ToListUserResponse converts a slice of domain.User to ListUsersResponse DTO
func ToListUserResponse(users []domain.User) ListUsersResponse {
	userResponses := make([]UserResponse, len(users))
	for i := range users {
		userResponses[i] = ToUserResponse(&users[i])
	}
	return ListUsersResponse{Users: userResponses}
}

func ToUserFlowResponse(requesterID string, entries []domain.UserFlowEntry) UserFlowResponse {
	if entries == nil {
		entries = []domain.UserFlowEntry{}
	}
	return UserFlowResponse{RequesterID: requesterID, Entries: entries}
}
