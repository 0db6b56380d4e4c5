package user

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

// AccountStatus drives where a submitted booking lands: pending accounts go to
// pending_user_verification instead of pending_approval.
type AccountStatus string

const (
	AccountActive  AccountStatus = "active"
	AccountPending AccountStatus = "pending"
)

type User struct {
	ID           string
	Name         string
	Email        string
	Organization string
	Role         Role
	Status       AccountStatus
	CreatedAt    time.Time
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsStaff reports lab-staff privileges (sample handling); admins qualify.
func (u *User) IsStaff() bool {
	return u.Role == RoleStaff || u.Role == RoleAdmin
}
