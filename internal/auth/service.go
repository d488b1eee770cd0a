package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/restaurant-api/restaurant-api/internal/platform/httpx"
)

// ErrInvalidCredentials indicates login failure. It is reported as a 400.
var ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", httpx.ErrValidation)

const userRoleID int64 = 1

// TokenMinter issues bearer tokens.
type TokenMinter interface {
	Issue(p Principal) (string, error)
}

// Service wraps account business rules.
type Service struct {
	repo      Repository
	tokens    TokenMinter
	validator *httpx.Validator
	hashCost  int
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens TokenMinter, validator *httpx.Validator) *Service {
	return &Service{repo: repo, tokens: tokens, validator: validator, hashCost: bcrypt.DefaultCost}
}

// Register validates and stores a new account, returning its ID.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (int64, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return 0, err
	}
	taken, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, httpx.NewValidationError("email", "That email is taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return 0, fmt.Errorf("auth: hash password: %w", err)
	}
	user := User{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Nationality:  req.Nationality,
		PasswordHash: string(hash),
		RoleID:       grantedRoleID(ctx, req.RoleID),
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse(DateLayout, req.DateOfBirth)
		if err != nil {
			return 0, httpx.NewValidationError("date_of_birth", "must be a date in 2006-01-02 format")
		}
		user.DateOfBirth = &dob
	}

	id, err := s.repo.CreateUser(ctx, user)
	if errors.Is(err, httpx.ErrDuplicate) {
		return 0, httpx.NewValidationError("email", "That email is taken")
	}
	return id, err
}

// grantedRoleID returns the requested role only when an authenticated Admin
// registers the account. Everyone else becomes a User.
func grantedRoleID(ctx context.Context, requested int64) int64 {
	caller, ok := PrincipalFromContext(ctx)
	if !ok || caller.Role != RoleAdmin || requested == 0 {
		return userRoleID
	}
	return requested
}

// Login verifies credentials and returns a signed token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", err
	}
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.tokens.Issue(user.Principal())
}
