package domain

import "time"

// UserRole determines what parts of the admin console a user may reach.
type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleStaff    UserRole = "staff"
	RoleCustomer UserRole = "customer"
)

// IsValid reports whether the role is one of the known roles.
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleCustomer:
		return true
	}
	return false
}

// User represents an identity record in the domain.
// Users are never hard-deleted while sessions may still reference them;
// DeletedAt marks a soft deactivation instead.
type User struct {
	UserID        string     `json:"userID"` // Primary Key (UUID)
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Role          UserRole   `json:"role"`
	IsActive      bool       `json:"isActive"`
	EmailVerified bool       `json:"emailVerified"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
	AuditFields
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// CanAuthenticate reports whether the user is allowed to log in at all.
func (u *User) CanAuthenticate() bool {
	return u.IsActive && u.DeletedAt == nil
}
