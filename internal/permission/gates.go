package permission

import (
	"log"

	"marketplace/pkg/apperror"
)

// Owned is implemented by entities that expose the user id their write
// access is gated on.
type Owned interface {
	OwnedBy() uint
}

// Actor is the authenticated principal of a request. Its canonical role is
// resolved once when the actor is built; the raw role values are retained
// only for deny audit logging.
type Actor struct {
	ID    uint
	Role  Role
	Staff bool

	rawRole        any
	rawProfileRole any
}

// NewActor builds an actor from the raw role representations observed at the
// authentication boundary (direct user role plus profile fallback).
func NewActor(id uint, staff bool, roleValue, profileRoleValue any) *Actor {
	return &Actor{
		ID:             id,
		Role:           RoleOf(roleValue, profileRoleValue),
		Staff:          staff,
		rawRole:        roleValue,
		rawProfileRole: profileRoleValue,
	}
}

// DenyLogger receives every deny decision for audit. It must not influence
// the outcome.
type DenyLogger func(gate string, actor *Actor)

// Evaluator is a pure predicate over (actor, object). Every deny is reported
// through the injected deny logger with the actor id and the role values
// observed.
type Evaluator struct {
	logDeny DenyLogger
}

func NewEvaluator(logDeny DenyLogger) *Evaluator {
	if logDeny == nil {
		logDeny = func(gate string, actor *Actor) {
			if actor == nil {
				log.Printf("%s denied: unauthenticated", gate)
				return
			}
			log.Printf("%s denied: user_id=%d role=%v profile_role=%v",
				gate, actor.ID, actor.rawRole, actor.rawProfileRole)
		}
	}
	return &Evaluator{logDeny: logDeny}
}

// RequireAuthenticated allows any authenticated actor.
func (e *Evaluator) RequireAuthenticated(a *Actor) error {
	if a == nil {
		e.logDeny("IsAuthenticated", a)
		return apperror.ErrUnauthenticated
	}
	return nil
}

// RequireBusiness allows only authenticated actors with the business role.
func (e *Evaluator) RequireBusiness(a *Actor) error {
	return e.requireRole(a, RoleBusiness, "IsBusinessUser",
		"authenticated user is not a 'business' profile")
}

// RequireCustomer allows only authenticated actors with the customer role.
func (e *Evaluator) RequireCustomer(a *Actor) error {
	return e.requireRole(a, RoleCustomer, "IsCustomerUser",
		"authenticated user is not a 'customer' profile")
}

func (e *Evaluator) requireRole(a *Actor, role Role, gate, message string) error {
	if err := e.RequireAuthenticated(a); err != nil {
		return err
	}
	if a.Role != role {
		e.logDeny(gate, a)
		return apperror.Forbidden(message)
	}
	return nil
}

// RequireOwner allows only the actor whose id matches the object's owner id.
func (e *Evaluator) RequireOwner(a *Actor, obj Owned) error {
	if err := e.RequireAuthenticated(a); err != nil {
		return err
	}
	if obj == nil || obj.OwnedBy() != a.ID {
		e.logDeny("IsOwner", a)
		return apperror.Forbidden("you do not have permission to modify this resource")
	}
	return nil
}

// RequireOwnerOrReadOnly allows reads to any authenticated actor and writes
// only to the owner.
func (e *Evaluator) RequireOwnerOrReadOnly(a *Actor, obj Owned, write bool) error {
	if !write {
		return e.RequireAuthenticated(a)
	}
	return e.RequireOwner(a, obj)
}

// RequireOrderBusiness allows only the business party attached to the order,
// who must also carry the business role.
func (e *Evaluator) RequireOrderBusiness(a *Actor, order Owned) error {
	if err := e.RequireBusiness(a); err != nil {
		return err
	}
	if order == nil || order.OwnedBy() != a.ID {
		e.logDeny("IsOrderBusinessUser", a)
		return apperror.Forbidden("you are not allowed to update this order")
	}
	return nil
}

// RequireStaff allows only staff actors. Staff is an elevated privilege
// outside the role model.
func (e *Evaluator) RequireStaff(a *Actor) error {
	if err := e.RequireAuthenticated(a); err != nil {
		return err
	}
	if !a.Staff {
		e.logDeny("IsAdminUser", a)
		return apperror.Forbidden("staff access required")
	}
	return nil
}
