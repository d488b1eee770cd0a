// Package authz decides whether a principal may act: per resource instance (ownership) and per
// route (roles and named claim policies).
package authz

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/restaurant-api/restaurant-api/internal/auth"
	"github.com/restaurant-api/restaurant-api/internal/platform/httpx"
)

// Operation is the action attempted against a resource.
type Operation string

// Operations.
const (
	OperationCreate Operation = "create"
	OperationRead   Operation = "read"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Owned is implemented by resources that record who created them. A nil owner means unknown.
type Owned interface {
	OwnerID() *int64
}

// IsPrivileged reports whether role may mutate resources it does not own.
func IsPrivileged(role auth.Role) bool {
	return role == auth.RoleAdmin || role == auth.RoleManager
}

// CanOperate is the instance level decision. Update and Delete are granted to privileged roles or
// to the owner; a resource without an owner is never granted to anyone else. Read is not gated
// and Create only depends on the role.
func CanOperate(p auth.Principal, res Owned, op Operation) bool {
	switch op {
	case OperationRead:
		return true
	case OperationCreate:
		return IsPrivileged(p.Role)
	case OperationUpdate, OperationDelete:
		if IsPrivileged(p.Role) {
			return true
		}
		if res == nil {
			return false
		}
		owner := res.OwnerID()
		return owner != nil && *owner == p.ID
	default:
		return false
	}
}

// DenialRecorder counts authorization denials by reason.
type DenialRecorder interface {
	RecordDenial(reason string)
}

// ResourceAuthorizer wraps CanOperate with logging for the service layer.
type ResourceAuthorizer struct {
	logger  *slog.Logger
	metrics DenialRecorder
}

// NewResourceAuthorizer constructs a ResourceAuthorizer. Both collaborators are optional.
func NewResourceAuthorizer(logger *slog.Logger, metrics DenialRecorder) *ResourceAuthorizer {
	return &ResourceAuthorizer{logger: logger, metrics: metrics}
}

// Authorize returns an error matching httpx.ErrForbidden when p may not perform op on res.
func (a *ResourceAuthorizer) Authorize(ctx context.Context, p auth.Principal, res Owned, op Operation) error {
	if CanOperate(p, res, op) {
		return nil
	}
	if a != nil && a.logger != nil {
		a.logger.InfoContext(ctx, "resource operation denied",
			slog.Int64("principal_id", p.ID),
			slog.String("role", string(p.Role)),
			slog.String("operation", string(op)),
		)
	}
	if a != nil && a.metrics != nil {
		a.metrics.RecordDenial("ownership")
	}
	return fmt.Errorf("%w: %s not permitted", httpx.ErrForbidden, op)
}
