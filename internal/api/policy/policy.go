// Package policy decides whether a principal may mutate an owned resource.
package policy

import (
	"github.com/google/uuid"

	"github.com/FACorreiaa/devcamper-api/internal/types"
)

// Operation is the mutation being attempted on an owned resource.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Owned is any record with exactly one owning principal.
type Owned interface {
	OwnerID() uuid.UUID
	ResourceID() uuid.UUID
	Kind() string
}

// Authorize allows op when actor owns res or is an admin.
// For OpCreate, res is the parent the new record attaches to.
func Authorize(actor *types.User, res Owned, op Operation) error {
	if actor == nil {
		return types.NewError(types.ErrUnauthenticated, "Not authorized to access this route")
	}
	if actor.IsAdmin() || actor.ID == res.OwnerID() {
		return nil
	}
	if op == OpCreate {
		return types.NewError(types.ErrForbidden,
			"User %s is not authorized to add to %s %s", actor.ID, res.Kind(), res.ResourceID())
	}
	return types.NewError(types.ErrForbidden,
		"User %s is not authorized to %s %s %s", actor.ID, op, res.Kind(), res.ResourceID())
}

// EnforceSingleOwnership rejects a non-admin owner who already holds a
// resource of the given kind.
func EnforceSingleOwnership(owner *types.User, kind string, owned int) error {
	if owner.IsAdmin() || owned == 0 {
		return nil
	}
	return types.NewError(types.ErrConflict,
		"The user with ID %s has already published a %s", owner.ID, kind)
}
