package models

import (
	"time"
)

// CachedFolder maps one hierarchy segment to the remote folder that realizes
// it. Rows are append-only: never mutated after creation, only soft-deleted.
// At most one active row exists per (name, parent_ref).
type CachedFolder struct {
	ID        string     `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	ParentRef *string    `json:"parent_ref" db:"parent_ref"` // NULL = hierarchy root
	RemoteID  string     `json:"remote_id" db:"remote_id"`
	Active    bool       `json:"active" db:"active"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// RemoteFolder is the backend's view of a folder. It is referenced, never
// owned: the backend may hold duplicates for the same name+parent, the cache
// picks one canonical id and is authoritative from then on.
type RemoteFolder struct {
	ID        string
	Name      string
	ParentIDs []string
	IsFolder  bool
}
