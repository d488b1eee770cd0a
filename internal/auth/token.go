package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Leeway for JWT time based checks.
const jwtLeeway = 5 * time.Second

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = errors.New("auth: invalid token")

type tokenClaims struct {
	jwt.RegisteredClaims
	Role        string `json:"role"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Nationality string `json:"nationality,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
}

// TokenIssuer signs and verifies HS256 bearer tokens. The issuer doubles as the audience, so a
// token is only accepted by the deployment that minted it.
type TokenIssuer struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer.
func NewTokenIssuer(key, issuer string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{key: []byte(key), issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue creates a signed token for p.
func (t *TokenIssuer) Issue(p Principal) (string, error) {
	now := t.now()
	claims := &tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(p.ID, 10),
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.issuer},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Role:  string(p.Role),
		Name:  p.Name,
		Email: p.Email,
	}
	if v, ok := p.Claim(ClaimNationality); ok {
		claims.Nationality = v
	}
	if v, ok := p.Claim(ClaimDateOfBirth); ok {
		claims.DateOfBirth = v
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature, issuer, audience and expiry and returns the encoded principal.
func (t *TokenIssuer) Parse(raw string) (Principal, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return t.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(jwtLeeway),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: subject %q", ErrInvalidToken, claims.Subject)
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	p := Principal{ID: id, Email: claims.Email, Name: claims.Name, Role: role, Claims: map[string]string{}}
	if claims.Nationality != "" {
		p.Claims[ClaimNationality] = claims.Nationality
	}
	if claims.DateOfBirth != "" {
		p.Claims[ClaimDateOfBirth] = claims.DateOfBirth
	}
	return p, nil
}
