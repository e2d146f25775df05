package careauth

// SessionState is the client-local, derived view of who is logged in and
// what tenant they belong to. Company is populated only when a session
// exists and the tenant fetch succeeded; a failed tenant fetch leaves the
// user set with Err recorded (see CompanyLoadPolicy for the strict
// alternative).
type SessionState struct {
	User    *SessionUser `json:"user,omitempty"`
	Company *Company     `json:"company,omitempty"`
	Loading bool         `json:"loading"`
	Err     string       `json:"error,omitempty"`
}

// IsAuthenticated reports whether a session user is present.
func (s SessionState) IsAuthenticated() bool {
	return s.User != nil
}

// IsAdmin reports whether the session user holds the admin role.
func (s SessionState) IsAdmin() bool {
	return s.User != nil && s.User.Role == RoleAdmin
}
