package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Permission names a capability an Admin may hold.
type Permission string

const (
	PermManageUsers     Permission = "manageUsers"
	PermManageTrainers  Permission = "manageTrainers"
	PermManageJobs      Permission = "manageJobs"
	PermManageExercises Permission = "manageExercises"
	PermViewAnalytics   Permission = "viewAnalytics"
	PermManageAdmins    Permission = "manageAdmins"
)

// Permissions is the stored permission set of an Admin.
type Permissions struct {
	ManageUsers     bool `bson:"manageUsers" json:"manageUsers"`
	ManageTrainers  bool `bson:"manageTrainers" json:"manageTrainers"`
	ManageJobs      bool `bson:"manageJobs" json:"manageJobs"`
	ManageExercises bool `bson:"manageExercises" json:"manageExercises"`
	ViewAnalytics   bool `bson:"viewAnalytics" json:"viewAnalytics"`
	ManageAdmins    bool `bson:"manageAdmins" json:"manageAdmins"`
}

// Has reports whether the set grants perm. Unknown permissions are never granted.
func (p Permissions) Has(perm Permission) bool {
	switch perm {
	case PermManageUsers:
		return p.ManageUsers
	case PermManageTrainers:
		return p.ManageTrainers
	case PermManageJobs:
		return p.ManageJobs
	case PermManageExercises:
		return p.ManageExercises
	case PermViewAnalytics:
		return p.ViewAnalytics
	case PermManageAdmins:
		return p.ManageAdmins
	}
	return false
}

// DefaultAdminPermissions is what a new admin gets when the creator does not specify a set.
func DefaultAdminPermissions() Permissions {
	return Permissions{
		ManageUsers:     true,
		ManageTrainers:  true,
		ManageJobs:      true,
		ManageExercises: true,
		ViewAnalytics:   true,
	}
}

// AllPermissions grants everything, including manageAdmins.
func AllPermissions() Permissions {
	p := DefaultAdminPermissions()
	p.ManageAdmins = true
	return p
}

// Admin is an operator account stored in the admins collection, separate from users.
type Admin struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName    string             `bson:"firstName" json:"firstName"`
	LastName     string             `bson:"lastName" json:"lastName"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	LastLogin    *time.Time         `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	Permissions  Permissions        `bson:"permissions" json:"permissions"`
	IsSuperAdmin bool               `bson:"isSuperAdmin" json:"isSuperAdmin"`

	ResetTokenHash   string     `bson:"resetTokenHash,omitempty" json:"-"`
	ResetTokenExpiry *time.Time `bson:"resetTokenExpiry,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (a *Admin) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Can reports whether the admin holds perm. Super admins hold every permission.
func (a *Admin) Can(perm Permission) bool {
	return a.IsSuperAdmin || a.Permissions.Has(perm)
}
