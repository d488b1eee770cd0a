package auth

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Role is the single role a principal holds.
type Role string

// Closed set of roles.
const (
	RoleUser    Role = "User"
	RoleManager Role = "Manager"
	RoleAdmin   Role = "Admin"
)

// Roles lists the known roles in seeding order; position+1 is the role ID.
func Roles() []Role {
	return []Role{RoleUser, RoleManager, RoleAdmin}
}

var titleCaser = cases.Title(language.Und)

// ParseRole resolves a role name case-insensitively.
func ParseRole(raw string) (Role, error) {
	role := Role(titleCaser.String(strings.TrimSpace(raw)))
	for _, known := range Roles() {
		if role == known {
			return role, nil
		}
	}
	return "", fmt.Errorf("auth: unknown role %q", raw)
}

// Claim names carried in tokens besides the registered ones.
const (
	ClaimNationality = "nationality"
	ClaimDateOfBirth = "date_of_birth"
)

// DateLayout is the wire format of date claims.
const DateLayout = "2006-01-02"

// Principal is the authenticated caller of a request.
type Principal struct {
	ID     int64
	Email  string
	Name   string
	Role   Role
	Claims map[string]string
}

// Claim returns the named claim and whether it is present.
func (p Principal) Claim(name string) (string, bool) {
	if p.Claims == nil {
		return "", false
	}
	v, ok := p.Claims[name]
	return v, ok
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
