package account

// Role is the coarse access tier of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleTeam  Role = "team"
	RoleAdmin Role = "admin"
)

// ParseRole validates a role string coming from the wire.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleUser, RoleTeam, RoleAdmin:
		return Role(raw), true
	}
	return "", false
}

// User is an account known to the backend.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Role  Role   `json:"role"`
}
