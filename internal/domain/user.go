package domain

import "time"

// Role is the authorization role of a user.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleStaff    Role = "STAFF"
	RoleAdmin    Role = "ADMIN"
)

// User is an account holder: a renting customer or a staff member.
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	FullName      string
	Phone         string
	Role          Role
	EmailVerified bool
	CreatedAt     time.Time
}
