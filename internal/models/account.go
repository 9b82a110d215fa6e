package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserRole gates routes. Every role except SUPERADMIN is bound to one school.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleLecturer   UserRole = "LECTURER"
	RoleStudent    UserRole = "STUDENT"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleLecturer, RoleStudent:
		return true
	}
	return false
}

// User is an account row joined with the status of its school.
type User struct {
	ID           string     `db:"id" json:"id"`
	SchoolID     *string    `db:"school_id" json:"school_id,omitempty"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`

	// Read-only, filled from schools.
	SchoolName   *string `db:"school_name" json:"-"`
	SchoolActive *bool   `db:"school_active" json:"-"`
}

// Tenant returns the school the account belongs to, or "" for platform accounts.
func (u *User) Tenant() string {
	if u.SchoolID == nil {
		return ""
	}
	return *u.SchoolID
}

// SchoolSuspended reports whether the account's school has been deactivated.
func (u *User) SchoolSuspended() bool {
	return u.SchoolID != nil && u.SchoolActive != nil && !*u.SchoolActive
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries a bearer token and the profile it was issued for.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
	IssuedAt    time.Time `json:"issued_at"`
	User        UserInfo  `json:"user"`
}

// UserInfo is the public view of an account.
type UserInfo struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	FullName   string     `json:"full_name"`
	Role       UserRole   `json:"role"`
	SchoolID   string     `json:"school_id,omitempty"`
	SchoolName string     `json:"school_name,omitempty"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
}

// NewUserInfo projects u onto its public view.
func NewUserInfo(u *User) UserInfo {
	info := UserInfo{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		SchoolID:  u.Tenant(),
		LastLogin: u.LastLogin,
	}
	if u.SchoolName != nil {
		info.SchoolName = *u.SchoolName
	}
	return info
}

// JWTClaims is the access token payload. SchoolID is empty for SUPERADMIN.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	SchoolID string   `json:"school_id,omitempty"`
	jwt.RegisteredClaims
}
