package entity

type Role string

const (
	RoleUser   Role = "user"
	RoleLawyer Role = "lawyer"
	RoleAdmin  Role = "admin"
)

func ParseRole(s string) Role {
	switch Role(s) {
	case RoleLawyer, RoleAdmin:
		return Role(s)
	}
	return RoleUser
}

// Identity is the authenticated caller as resolved by the identity accessor.
// The zero value is an anonymous visitor.
type Identity struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	Email  string `json:"email,omitempty"`
}

func (i Identity) Authenticated() bool {
	return i.UserID != ""
}
