package enums

// Role is the actor role carried in access tokens.
type Role string

const (
	RoleBuyer    Role = "buyer"
	RoleMerchant Role = "merchant"
	RoleAdmin    Role = "admin"

	// RoleSystem marks background jobs. It is never issued in a token.
	RoleSystem Role = "system"
)

// IsValid reports whether the value is a Role that may appear in a token.
func (r Role) IsValid() bool {
	switch r {
	case RoleBuyer, RoleMerchant, RoleAdmin:
		return true
	}
	return false
}
