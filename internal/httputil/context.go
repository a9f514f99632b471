package httputil

import (
	"context"
	"net/http"

	"auditdrive/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	userIDKey contextKey = "userID"
	roleKey   contextKey = "role"
)

// WithIdentity adds the authenticated user id and role to the request context
func WithIdentity(r *http.Request, userID string, role models.Role) *http.Request {
	ctx := context.WithValue(r.Context(), userIDKey, userID)
	ctx = context.WithValue(ctx, roleKey, role)
	return r.WithContext(ctx)
}

// GetUserID retrieves the user id from context, empty string if not found
func GetUserID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}

// GetRole retrieves the role from context, empty role if not found
func GetRole(r *http.Request) models.Role {
	role, _ := r.Context().Value(roleKey).(models.Role)
	return role
}
