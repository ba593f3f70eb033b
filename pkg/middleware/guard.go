package middleware

import (
	"net/http"
	"strings"

	"github.com/modfleet/gatehouse/pkg/access"
	"github.com/modfleet/gatehouse/pkg/contextkeys"
	"github.com/modfleet/gatehouse/pkg/httputil"
	"github.com/modfleet/gatehouse/pkg/observability"
)

// SubjectHeader carries the caller-supplied subject id. The deployment must
// guarantee it was derived from the same authenticated session as the bearer
// token; the engine trusts the pair as documented in pkg/access.
const SubjectHeader = "X-Gatehouse-User-Id"

// Identity is the caller-supplied pair the engine evaluates
type Identity struct {
	SubjectID   string
	BearerToken string
}

// IdentityFromRequest extracts the bearer token and subject id. Returns nil
// when either is missing or malformed.
func IdentityFromRequest(r *http.Request) *Identity {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return nil
	}

	subjectID := r.Header.Get(SubjectHeader)
	if subjectID == "" {
		return nil
	}

	return &Identity{
		SubjectID:   subjectID,
		BearerToken: parts[1],
	}
}

// AccessGuard enforces the dashboard access policy on inbound requests. All
// enforcement points share one guard so the outcome-to-response mapping never
// drifts between them.
type AccessGuard struct {
	engine       *access.Engine
	logger       *observability.Logger
	debugDenials bool
	policy       access.Policy
}

// GuardOption configures an AccessGuard
type GuardOption func(*AccessGuard)

// WithGuardLogger attaches a structured logger
func WithGuardLogger(logger *observability.Logger) GuardOption {
	return func(g *AccessGuard) {
		g.logger = logger
	}
}

// WithDebugDenials includes the required guild/role ids in 403 bodies. Useful
// for support, but leaks policy internals; keep off in production.
func WithDebugDenials(policy access.Policy) GuardOption {
	return func(g *AccessGuard) {
		g.debugDenials = true
		g.policy = policy
	}
}

// NewAccessGuard creates the enforcement middleware around the decision engine
func NewAccessGuard(engine *access.Engine, opts ...GuardOption) *AccessGuard {
	g := &AccessGuard{
		engine: engine,
		logger: observability.NewLogger(observability.InfoLevel, nil),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check evaluates the identity against the policy
func (g *AccessGuard) Check(r *http.Request, ident *Identity) (access.Decision, error) {
	return g.engine.Evaluate(r.Context(), ident.SubjectID, ident.BearerToken)
}

// Handler wraps an HTTP handler with access enforcement
func (g *AccessGuard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident := IdentityFromRequest(r)
		if ident == nil {
			httputil.WriteUnauthorized(w, "missing or malformed credentials")
			return
		}

		decision, err := g.Check(r, ident)
		if !decision.Granted() {
			g.WriteDecision(w, decision, err)
			return
		}

		ctx := contextkeys.WithIdentity(r.Context(), ident)
		ctx = contextkeys.WithSubjectID(ctx, ident.SubjectID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WriteDecision maps a non-granted decision to its boundary response. The
// remediation differs per status: 401 means "sign in again", 403 means "ask
// an admin for a role", 503 means "retry the request".
func (g *AccessGuard) WriteDecision(w http.ResponseWriter, decision access.Decision, err error) {
	switch decision {
	case access.DecisionUnauthorized:
		httputil.WriteUnauthorized(w, "invalid or expired session")
	case access.DecisionDeniedNotMember, access.DecisionDeniedNoRole:
		if g.debugDenials {
			httputil.WriteDetailedError(w, http.StatusForbidden, "insufficient permissions", map[string]string{
				"reason":         decision.String(),
				"required_guild": g.policy.GuildID,
				"required_roles": strings.Join(g.policy.RequiredRoleIDs, ","),
			})
			return
		}
		httputil.WriteForbidden(w, "insufficient permissions")
	case access.DecisionTransientFailure:
		g.logger.WithError(err).Warn("access check unavailable")
		httputil.WriteServiceUnavailable(w, "access check temporarily unavailable", 1)
	default:
		httputil.WriteForbidden(w, "insufficient permissions")
	}
}

// GetIdentity extracts the guard-resolved identity from a request behind the
// guard, or nil outside it
func GetIdentity(r *http.Request) *Identity {
	value := r.Context().Value(contextkeys.IdentityKey)
	if value == nil {
		return nil
	}
	ident, ok := value.(*Identity)
	if !ok {
		return nil
	}
	return ident
}
