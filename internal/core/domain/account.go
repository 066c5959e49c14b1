package domain

import "time"

// Role scopes what an authenticated account may do on the marketplace.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleRider    Role = "rider"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known marketplace roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleVendor, RoleRider, RoleAdmin:
		return true
	}
	return false
}

// SelfAssignable reports whether r may be chosen at signup. Admin accounts
// are provisioned out of band.
func (r Role) SelfAssignable() bool {
	return r.Valid() && r != RoleAdmin
}

// Account models a marketplace identity. Email and PhoneNumber are each unique.
type Account struct {
	ID           string    `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PhoneNumber  string    `json:"phone_number"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal is the authenticated identity attached to a request.
type Principal struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}
