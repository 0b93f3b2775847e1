package models

import "time"

type UserRole string

const (
	UserRoleStudent UserRole = "student"
	UserRoleTeacher UserRole = "teacher"
	UserRoleAdmin   UserRole = "admin"
)

// Valid reports whether r is one of the roles the users table accepts.
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleStudent, UserRoleTeacher, UserRoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	Role         UserRole
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the authenticated identity attached to a request.
type Principal struct {
	ID       int64
	Username string
	Role     UserRole
}

func (u User) Principal() Principal {
	return Principal{ID: u.ID, Username: u.Username, Role: u.Role}
}

func (p Principal) Is(role UserRole) bool {
	return p.ID != 0 && p.Role == role
}

func (p Principal) IsStudent() bool { return p.Is(UserRoleStudent) }
func (p Principal) IsTeacher() bool { return p.Is(UserRoleTeacher) }
func (p Principal) IsAdmin() bool   { return p.Is(UserRoleAdmin) }
