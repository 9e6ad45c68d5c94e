package entity

// Role is the authorization level of a principal.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Principal identifies the acting user for a single operation. It is passed
// explicitly into every core operation; there is no ambient or session-wide
// role state.
type Principal struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// IsAdmin returns true if the principal carries the elevated role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Owns returns true if the principal created the given report.
func (p Principal) Owns(r *ExpenseReport) bool {
	return r != nil && p.UserID == r.OwnerID
}
