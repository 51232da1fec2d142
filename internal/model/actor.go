package model

// Role names recognized by the authorization rules.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
)

// Actor is the authenticated caller of a core operation. It is constructed
// once at the HTTP boundary from the identity resolver and passed by value;
// the core never reads the caller from ambient state.
type Actor struct {
	ID    string
	Roles []string
}

// HasRole reports whether the actor holds the named role.
func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.HasRole(RoleAdmin)
}
