package models

import "github.com/golang-jwt/jwt/v5"

// Role is the application role carried in the auth token. Closed set:
// every role maps to exactly one visibility rule, anything else is rejected.
type Role string

const (
	RolePartner      Role = "Partner"
	RoleTaxManager   Role = "TaxManager"
	RoleAuditManager Role = "AuditManager"
	RoleUser         Role = "User"
)

// Claims is the JWT claims structure issued by the identity provider.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *Claims) GetUserID() string {
	return c.Subject
}
