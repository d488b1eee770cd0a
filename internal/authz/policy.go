package authz

import (
	"errors"
	"fmt"
	"time"

	"github.com/restaurant-api/restaurant-api/internal/auth"
)

// Registered policy names.
const (
	PolicyHasNationality = "HasNationality"
	PolicyAtLeast20      = "Atleast20"
)

// ErrUnknownPolicy is returned when evaluating a name that was never registered.
var ErrUnknownPolicy = errors.New("authz: unknown policy")

// Requirement is a predicate over a principal's claims.
type Requirement interface {
	Evaluate(p auth.Principal) (bool, error)
}

// ClaimPresent succeeds when the claim exists with any value.
type ClaimPresent string

// Evaluate implements Requirement.
func (c ClaimPresent) Evaluate(p auth.Principal) (bool, error) {
	_, ok := p.Claim(string(c))
	return ok, nil
}

// MinimumAge succeeds when the date of birth claim is at least Years whole years before Now.
type MinimumAge struct {
	Years int
	Claim string
	Now   func() time.Time
}

// Evaluate implements Requirement. A missing claim is unmet; an unparsable one is an error.
func (m MinimumAge) Evaluate(p auth.Principal) (bool, error) {
	claim := m.Claim
	if claim == "" {
		claim = auth.ClaimDateOfBirth
	}
	raw, ok := p.Claim(claim)
	if !ok {
		return false, nil
	}
	dob, err := time.Parse(auth.DateLayout, raw)
	if err != nil {
		return false, fmt.Errorf("authz: parse %s claim: %w", claim, err)
	}
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	return AgeOn(dob, now()) >= m.Years, nil
}

// AgeOn returns the age in whole years on the calendar day of now. A birthday not yet reached in
// now's year does not count.
func AgeOn(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// Registry maps policy names to requirements. It is populated once at start-up and read only
// afterwards.
type Registry struct {
	policies map[string]Requirement
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{policies: make(map[string]Requirement)}
}

// Register adds a named policy.
func (r *Registry) Register(name string, req Requirement) error {
	if name == "" || req == nil {
		return errors.New("authz: policy name and requirement required")
	}
	if _, exists := r.policies[name]; exists {
		return fmt.Errorf("authz: policy %q already registered", name)
	}
	r.policies[name] = req
	return nil
}

// Evaluate runs the named policy. Unknown names, errors and panics all deny.
func (r *Registry) Evaluate(name string, p auth.Principal) (allowed bool, err error) {
	req, ok := r.policies[name]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownPolicy, name)
	}
	defer func() {
		if rec := recover(); rec != nil {
			allowed, err = false, fmt.Errorf("authz: policy %s panicked: %v", name, rec)
		}
	}()
	allowed, err = req.Evaluate(p)
	if err != nil {
		return false, err
	}
	return allowed, nil
}

// DefaultPolicies registers the application's policies.
func DefaultPolicies(now func() time.Time) *Registry {
	r := NewRegistry()
	_ = r.Register(PolicyHasNationality, ClaimPresent(auth.ClaimNationality))
	_ = r.Register(PolicyAtLeast20, MinimumAge{Years: 20, Claim: auth.ClaimDateOfBirth, Now: now})
	return r
}
