package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles, lowest to highest.
const (
	RoleUser       Role = "user"
	RoleSpecialist Role = "specialist"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

var roleRanks = map[Role]int{
	RoleUser:       1,
	RoleSpecialist: 2,
	RoleAdmin:      3,
	RoleSuperAdmin: 4,
}

// challengeManagerRoles is the privileged set allowed to create, edit and
// delete weeks and challenge items.
var challengeManagerRoles = map[Role]struct{}{
	RoleSpecialist: {},
	RoleAdmin:      {},
	RoleSuperAdmin: {},
}

// ParseRole normalizes a role string coming from a session or request body.
// Matching is case-insensitive ("SuperAdmin" -> RoleSuperAdmin).
// ok is false for anything outside the known set.
func ParseRole(s string) (role Role, ok bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	_, ok = roleRanks[r]
	return r, ok
}

// Rank returns the position of the role in the ordered set (0 when unknown).
func (r Role) Rank() int {
	return roleRanks[r]
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r.Rank() > 0
}

// CanManageChallenges is the single capability predicate for challenge
// catalog mutations. It is used both to decide which affordances to offer
// and to guard the mutation itself.
func CanManageChallenges(role Role) bool {
	_, ok := challengeManagerRoles[role]
	return ok
}

// CanAssignRoles reports whether the role may change other users' roles.
func CanAssignRoles(role Role) bool {
	return role.Rank() >= RoleAdmin.Rank()
}

// User represents an account on the platform.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) CanManageChallenges() bool {
	return CanManageChallenges(u.Role)
}

// Actor is the explicit session passed into services and views: who is
// acting and with which role.
type Actor struct {
	UserID primitive.ObjectID
	Role   Role
}

func (a Actor) CanManageChallenges() bool {
	return CanManageChallenges(a.Role)
}

// Authenticated reports whether the actor carries a user id and a known role.
func (a Actor) Authenticated() bool {
	return a.UserID != primitive.NilObjectID && a.Role.Valid()
}
