// Package policy is the single place the ownership rule lives. Handlers never
// branch on roles themselves; they ask for a decision or a query filter.
package policy

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pantherdox/mini-crm-backend/internal/models"
)

// Actor is the authenticated identity performing a request.
type Actor struct {
	ID   primitive.ObjectID
	Role string
	Name string
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// CanAccess decides direct access to a resource owned by owner. Admins always
// pass. Agents pass only when the owner field equals their own id; an
// unassigned resource (nil owner) is never visible to an agent.
func CanAccess(actor Actor, owner *primitive.ObjectID) bool {
	if actor.IsAdmin() {
		return true
	}
	return owner != nil && *owner == actor.ID
}

// ScopeToOwner narrows a list/count filter for agents by forcing an equality
// match on the ownership field. Applying it at the query layer keeps
// pagination and totals correct. Admin filters pass through untouched.
func ScopeToOwner(actor Actor, field string, filter bson.M) bson.M {
	if filter == nil {
		filter = bson.M{}
	}
	if !actor.IsAdmin() {
		filter[field] = actor.ID
	}
	return filter
}

// CanReassign gates moving a lead between agents.
func CanReassign(actor Actor) bool {
	return actor.IsAdmin()
}

// CanAdministerUsers gates account management (registration, role and
// active-flag changes, credential resets).
func CanAdministerUsers(actor Actor) bool {
	return actor.IsAdmin()
}

// IsSelfTargeting reports whether the actor is operating on their own
// account. Self-deactivation is rejected regardless of role.
func IsSelfTargeting(actor Actor, target primitive.ObjectID) bool {
	return actor.ID == target
}
