package models

import "time"

// CreateRTUserRequest is the payload for provisioning an RT account.
type CreateRTUserRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=255,username_chars"`
	Password string  `json:"password" validate:"required,min=8,max=255"`
	Notes    *string `json:"notes" validate:"omitempty,max=500"`
}

// UpdateRTUserRequest carries partial updates for an RT account. Password
// changes go through the dedicated reset endpoint.
type UpdateRTUserRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=255,username_chars"`
	IsActive *bool   `json:"is_active"`
	Notes    *string `json:"notes" validate:"omitempty,max=500"`
}

// ResetRTPasswordRequest sets a new password for an RT account.
type ResetRTPasswordRequest struct {
	Password             string `json:"password" validate:"required,min=8,max=255"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// RTUserInfo is the public shape of an RT account.
type RTUserInfo struct {
	ID        string    `json:"id"`
	UUID      string    `json:"uuid"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"is_active"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RTUserFromUser maps an account row to its public shape.
func RTUserFromUser(u *User) RTUserInfo {
	return RTUserInfo{
		ID:        u.ID,
		UUID:      u.UUID,
		Username:  u.Username,
		Role:      u.Role,
		IsActive:  u.IsActive,
		Notes:     u.Notes,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
