package domain

type Role string

const (
	RoleUser   Role = "user"
	RoleVendor Role = "vendor"
	RoleAdmin  Role = "admin"

	// RoleFraud marks a vendor whose tickets are excluded from public
	// catalog results without deleting their data.
	RoleFraud Role = "fraud"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleVendor, RoleAdmin, RoleFraud:
		return true
	}
	return false
}

// Principal identifies the authenticated caller of a request. It is built
// once by the auth middleware and passed explicitly into every core
// operation; there is no ambient session state.
type Principal struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  Role   `json:"role"`
}

func (p Principal) IsAdmin() bool  { return p.Role == RoleAdmin }
func (p Principal) IsVendor() bool { return p.Role == RoleVendor }
