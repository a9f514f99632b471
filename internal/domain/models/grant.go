package models

import (
	"time"
)

// AccessGrant is one explicit per-user per-project access record. Multiple
// rows may exist for the same (user, project) pair; the most recently
// assigned one governs.
type AccessGrant struct {
	ID        string     `json:"id" db:"id"`
	UserID    string     `json:"user_id" db:"user_id"`
	ProjectID string     `json:"project_id" db:"project_id"`
	HasAccess bool       `json:"has_access" db:"has_access"`
	AssignedAt time.Time `json:"assigned_at" db:"assigned_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" db:"expires_at"`
}

// Live reports whether the grant confers access at the given instant.
func (g *AccessGrant) Live(now time.Time) bool {
	if !g.HasAccess {
		return false
	}
	return g.ExpiresAt == nil || g.ExpiresAt.After(now)
}
