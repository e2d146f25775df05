package careauth

// GateDecision is the outcome of evaluating session state against a gate.
type GateDecision int

const (
	// GateLoading means session state is still being established.
	GateLoading GateDecision = iota
	// GateUnauthenticated means no session is present.
	GateUnauthenticated
	// GateForbidden means a session exists but lacks the required role.
	GateForbidden
	// GateAdmit means the guarded content may proceed.
	GateAdmit
)

func (d GateDecision) String() string {
	switch d {
	case GateLoading:
		return "loading"
	case GateUnauthenticated:
		return "unauthenticated"
	case GateForbidden:
		return "forbidden"
	case GateAdmit:
		return "admit"
	default:
		return "unknown"
	}
}

// Gate admits or blocks downstream behavior based purely on session state.
// It holds no state of its own.
type Gate struct {
	// RequireAdmin additionally demands the admin role.
	RequireAdmin bool
	// LoadingMessage, UnauthenticatedMessage and ForbiddenMessage are the
	// configurable fallbacks surfaced for non-admit decisions.
	LoadingMessage         string
	UnauthenticatedMessage string
	ForbiddenMessage       string
}

// NewGate returns a Gate with default fallback messages.
func NewGate(requireAdmin bool) Gate {
	return Gate{
		RequireAdmin:           requireAdmin,
		LoadingMessage:         "loading...",
		UnauthenticatedMessage: "please sign in to continue",
		ForbiddenMessage:       "you need administrator access to view this",
	}
}

// Decide evaluates the state. Loading wins over everything, then session
// presence, then role.
func (g Gate) Decide(state SessionState) GateDecision {
	if state.Loading {
		return GateLoading
	}

	if !state.IsAuthenticated() {
		return GateUnauthenticated
	}

	if g.RequireAdmin && !state.IsAdmin() {
		return GateForbidden
	}

	return GateAdmit
}

// Fallback returns the configured message for a non-admit decision, empty
// for GateAdmit.
func (g Gate) Fallback(d GateDecision) string {
	switch d {
	case GateLoading:
		return g.LoadingMessage
	case GateUnauthenticated:
		return g.UnauthenticatedMessage
	case GateForbidden:
		return g.ForbiddenMessage
	default:
		return ""
	}
}
