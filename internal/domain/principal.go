package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// PrincipalKind names the store an authenticated identity lives in.
type PrincipalKind string

const (
	KindUser  PrincipalKind = "user"
	KindAdmin PrincipalKind = "admin"
)

// Principal is an authenticated identity. Exactly one of User and Admin is set,
// matching Kind.
type Principal struct {
	Kind  PrincipalKind
	User  *User
	Admin *Admin
}

func UserPrincipal(u *User) *Principal {
	return &Principal{Kind: KindUser, User: u}
}

func AdminPrincipal(a *Admin) *Principal {
	return &Principal{Kind: KindAdmin, Admin: a}
}

func (p *Principal) ID() primitive.ObjectID {
	if p.Kind == KindAdmin {
		return p.Admin.ID
	}
	return p.User.ID
}

// Role is the role checked by role guards. Admins always act as RoleAdmin.
func (p *Principal) Role() Role {
	if p.Kind == KindAdmin {
		return RoleAdmin
	}
	return p.User.Role
}

func (p *Principal) Email() string {
	if p.Kind == KindAdmin {
		return p.Admin.Email
	}
	return p.User.Email
}

func (p *Principal) FullName() string {
	if p.Kind == KindAdmin {
		return p.Admin.FullName()
	}
	return p.User.FullName()
}

func (p *Principal) IsActive() bool {
	if p.Kind == KindAdmin {
		return p.Admin.IsActive
	}
	return p.User.IsActive
}

func (p *Principal) PasswordHash() string {
	if p.Kind == KindAdmin {
		return p.Admin.PasswordHash
	}
	return p.User.PasswordHash
}

// Can reports whether the principal holds an admin permission.
// User principals never do, whatever their role.
func (p *Principal) Can(perm Permission) bool {
	return p.Kind == KindAdmin && p.Admin.Can(perm)
}
