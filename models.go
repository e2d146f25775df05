package careauth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role within their company
type UserRole = string

const (
	// RoleUser is a regular care coordinator (i.e. view, edit own work)
	RoleUser UserRole = "user"
	// RoleAdmin is a company administrator (i.e. manage users, settings)
	RoleAdmin UserRole = "admin"
)

// PlanTier is the subscription level of a company
type PlanTier = string

const (
	PlanFree       PlanTier = "free"
	PlanPro        PlanTier = "pro"
	PlanEnterprise PlanTier = "enterprise"
)

// User is the Identity Record: the durable profile behind a credential
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Name           string     `bun:"name,notnull" json:"name,omitempty"`
	Phone          string     `bun:"phone_number" json:"phone_number,omitempty"`
	CompanyID      uuid.UUID  `bun:"company_id,notnull,type:uuid" json:"company_id,omitempty"`
	Role           UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	IsActive       bool       `bun:"is_active,notnull" json:"is_active"`
	PasswordHash   string     `bun:"password_hash" json:"-"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LastLoginAt    *time.Time `bun:"last_login_at,nullzero" json:"last_login_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// BelongsTo reports whether the user is a member of the given company.
func (u *User) BelongsTo(companyID uuid.UUID) bool {
	if u == nil {
		return false
	}
	return u.CompanyID == companyID
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UsageLimits holds the per-company quota settings
type UsageLimits struct {
	MonthlyAssessments int `bun:"monthly_assessments" json:"monthly_assessments,omitempty"`
	APICalls           int `bun:"api_calls" json:"api_calls,omitempty"`
	MaxUsers           int `bun:"max_users" json:"max_users,omitempty"`
	StorageMB          int `bun:"storage_mb" json:"storage_mb,omitempty"`
}

// Company is the Tenant Record: organization settings and quotas shared by
// a group of Identity Records. Read-only from the session core.
type Company struct {
	bun.BaseModel `bun:"table:companies,alias:cmp"`
	ID            uuid.UUID   `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string      `bun:"name,notnull" json:"name,omitempty"`
	Plan          PlanTier    `bun:"plan,notnull" json:"plan,omitempty"`
	Limits        UsageLimits `bun:"embed:limit_" json:"limits,omitempty"`
	CreatedAt     *time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time  `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// SessionUser is an immutable Identity Record snapshot paired with the
// bearer token issued for the current session.
type SessionUser struct {
	User
	Token string `json:"-"`
}

// NewSessionUser copies the record so later directory writes don't leak
// into an established session.
func NewSessionUser(user *User, token string) *SessionUser {
	if user == nil {
		return nil
	}
	return &SessionUser{User: *user, Token: token}
}
