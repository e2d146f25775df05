package careauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthClaims are the JWT claims carried by bearer tokens issued for a
// session: the identity-store UID plus the directory attributes guards care
// about.
type AuthClaims struct {
	jwt.RegisteredClaims
	UID       string `json:"uid,omitempty"`
	Email     string `json:"email,omitempty"`
	UserRole  string `json:"role,omitempty"`
	CompanyID string `json:"company_id,omitempty"`
}

// UserID returns the subject identity-store UID.
func (c *AuthClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Role returns the role claim, defaulting to the regular user role.
func (c *AuthClaims) Role() UserRole {
	if role, ok := ParseRole(c.UserRole); ok {
		return role
	}
	return RoleUser
}

// Expires returns the expiry time, zero when absent.
func (c *AuthClaims) Expires() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
