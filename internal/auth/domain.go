package auth

import (
	"strings"
	"time"
)

// User represents a registered account.
type User struct {
	ID           int64
	Email        string
	FirstName    string
	LastName     string
	DateOfBirth  *time.Time
	Nationality  string
	PasswordHash string
	RoleID       int64
	Role         Role
}

// Principal projects the account into the identity carried by tokens.
func (u User) Principal() Principal {
	p := Principal{
		ID:     u.ID,
		Email:  u.Email,
		Name:   strings.TrimSpace(u.FirstName + " " + u.LastName),
		Role:   u.Role,
		Claims: map[string]string{},
	}
	if u.Nationality != "" {
		p.Claims[ClaimNationality] = u.Nationality
	}
	if u.DateOfBirth != nil {
		p.Claims[ClaimDateOfBirth] = u.DateOfBirth.Format(DateLayout)
	}
	return p
}

// RegisterRequest is the payload of POST /api/account/register.
type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
	FirstName       string `json:"first_name" validate:"omitempty,max=50"`
	LastName        string `json:"last_name" validate:"omitempty,max=50"`
	Nationality     string `json:"nationality" validate:"omitempty,max=50"`
	DateOfBirth     string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	RoleID          int64  `json:"role_id" validate:"omitempty,oneof=1 2 3"`
}

// LoginRequest is the payload of POST /api/account/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token string `json:"token"`
}
