package domain

const (
	RoleCustomer = "customer"
	RoleLender   = "lender"
	RoleAdmin    = "admin"
)

// ValidRole reports whether role is one of the three known roles.
func ValidRole(role string) bool {
	return role == RoleCustomer || role == RoleLender || role == RoleAdmin
}

// Credential is the record the credential store keeps per email address.
// Immutable from the bot's perspective.
type Credential struct {
	UserID       string
	PasswordHash string
	Role         string
}

// LinkedEntity is the role-specific business entity a user is attached to:
// a customer id for customers, a lender id for lenders, the user id itself
// for admins.
type LinkedEntity struct {
	DomainID    string
	DisplayName string
}

// UserSummary is a single row of the admin user listing.
type UserSummary struct {
	UserID string
	Name   string
	Email  string
	Role   string
}
