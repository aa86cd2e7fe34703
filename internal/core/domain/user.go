package domain

import "time"

// User models a registered account. PasswordHash is never serialised.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        []Role    `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Authorities returns the authority strings granted by the user's roles,
// in role order and without duplicates.
func (u *User) Authorities() []string {
	seen := make(map[string]struct{}, len(u.Roles))
	out := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		a := r.Name.Authority()
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

// RoleIDs returns the identifiers of the roles referenced by the user.
func (u *User) RoleIDs() []string {
	ids := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		ids = append(ids, r.ID)
	}
	return ids
}
