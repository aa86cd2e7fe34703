package domain

import "sort"

// RoleName is one of the fixed role identifiers stored in the roles collection.
type RoleName string

const (
	RoleUser      RoleName = "USER"
	RoleModerator RoleName = "MODERATOR"
	RoleAdmin     RoleName = "ADMIN"
)

// AuthorityPrefix is prepended to a role name to form its authority string.
const AuthorityPrefix = "ROLE_"

// AllRoles lists every role that must be seeded before the service starts.
var AllRoles = []RoleName{RoleUser, RoleModerator, RoleAdmin}

// requestedRoleNames maps the role names accepted at signup to stored roles.
// Keys are matched exactly; "Admin" or "moderator" are unknown names.
var requestedRoleNames = map[string]RoleName{
	"user":  RoleUser,
	"mod":   RoleModerator,
	"admin": RoleAdmin,
}

// Role is seeded reference data; users hold it by id.
type Role struct {
	ID   string   `json:"id"`
	Name RoleName `json:"name"`
}

// Authority returns the authority string checked by the authorization gate,
// e.g. ADMIN -> ROLE_ADMIN.
func (n RoleName) Authority() string {
	return AuthorityPrefix + string(n)
}

// Valid reports whether n is one of the known role names.
func (n RoleName) Valid() bool {
	for _, r := range AllRoles {
		if r == n {
			return true
		}
	}
	return false
}

// LookupRoleName maps a signup role string to a RoleName. Matching is exact.
func LookupRoleName(requested string) (RoleName, bool) {
	name, ok := requestedRoleNames[requested]
	return name, ok
}

// SortRoles orders roles by their position in AllRoles so responses and
// stored documents are deterministic.
func SortRoles(roles []Role) {
	rank := func(n RoleName) int {
		for i, r := range AllRoles {
			if r == n {
				return i
			}
		}
		return len(AllRoles)
	}
	sort.SliceStable(roles, func(i, j int) bool {
		return rank(roles[i].Name) < rank(roles[j].Name)
	})
}
