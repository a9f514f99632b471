package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors - match with errors.Is()
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("already exists")
	ErrValidation       = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrPermissionDenied = errors.New("remote permission denied")
	ErrBackendUnavailable = errors.New("remote backend unavailable")
	ErrUnauthorizedRole = errors.New("unrecognized role")
)

// ProvisioningError reports which level of the folder hierarchy could not be
// resolved. The underlying cause is reachable via errors.Is/errors.As.
type ProvisioningError struct {
	Segment string
	Err     error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provision folder %q: %v", e.Segment, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

// CacheDivergenceError signals that an active cache row maps a segment to a
// different remote folder than the one being inserted. This indicates a race
// or an upstream bug and is never resolved silently.
type CacheDivergenceError struct {
	Name      string
	ParentRef *string
	CachedID  string
	RemoteID  string
}

func (e *CacheDivergenceError) Error() string {
	return fmt.Sprintf("folder cache divergence for %q: cached remote id %s, got %s",
		e.Name, e.CachedID, e.RemoteID)
}

// Is allows errors.Is() to match against ErrConflict
func (e *CacheDivergenceError) Is(target error) bool {
	return target == ErrConflict
}
