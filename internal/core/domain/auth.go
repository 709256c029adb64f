package domain

import "time"

type Role string

const (
	// RoleAdmin may read the audit trail and push mutations.
	RoleAdmin Role = "admin"
	// RoleIngest may only push mutations.
	RoleIngest Role = "ingest"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleIngest
}

// Allows reports whether a key with role r may act as want.
func (r Role) Allows(want Role) bool {
	if r == RoleAdmin {
		return true
	}
	return r == want
}

type APIKey struct {
	TokenHash string
	Name      string
	Role      Role
	Active    bool
	CreatedAt time.Time
}
