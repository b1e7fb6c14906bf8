package user

import (
	"errors"
	"strings"

	"gearbook/internal/domain/equipment"
)

var ErrInvalidRole = errors.New("invalid role")

// Role is the privilege level of a user. Roles are totally ordered:
// User < Osnova < Ronin < Admin. Admin is a superset for equipment access
// checks, not a separate tier.
type Role string

const (
	RoleUser   Role = "user"
	RoleOsnova Role = "osnova"
	RoleRonin  Role = "ronin"
	RoleAdmin  Role = "admin"
)

var roleLevels = map[Role]int{
	RoleUser:   0,
	RoleOsnova: 1,
	RoleRonin:  2,
	RoleAdmin:  3,
}

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	_, ok := roleLevels[r]
	return ok
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Level returns the role's position in the privilege order.
func (r Role) Level() int {
	return roleLevels[r]
}

// Satisfies is the single tier-comparison predicate: a role may book a model
// when its level is at least the model's access tier level. Admin satisfies
// every tier.
func (r Role) Satisfies(required equipment.AccessTier) bool {
	if !r.IsValid() || !required.IsValid() {
		return false
	}
	return r.Level() >= required.Level()
}

func NewRole(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if !role.IsValid() {
		return "", ErrInvalidRole
	}
	return role, nil
}
