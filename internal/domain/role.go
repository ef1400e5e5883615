package domain

// Role is the access level carried in an API token.
type Role string

// Roles.
const (
	RolePublisher Role = "publisher" // may submit content mutations
	RoleAdmin     Role = "admin"     // may manage webhooks and sections
)

var roleLevels = map[Role]int{
	RolePublisher: 1,
	RoleAdmin:     2,
}

// IsValid checks if the role is known.
func (r Role) IsValid() bool {
	_, ok := roleLevels[r]
	return ok
}

// HasPermission reports whether r grants at least the access of required.
func (r Role) HasPermission(required Role) bool {
	have, ok := roleLevels[r]
	if !ok {
		return false
	}
	return have >= roleLevels[required]
}
