package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/modfleet/gatehouse/pkg/httputil"
	"github.com/modfleet/gatehouse/pkg/middleware"
	"github.com/modfleet/gatehouse/pkg/observability"
	"github.com/modfleet/gatehouse/pkg/tickets"
)

// Server represents the gatehouse API server
type Server struct {
	router *mux.Router
	guard  *middleware.AccessGuard
	logger *observability.Logger
}

// Options configures the API server
type Options struct {
	// Guard is the shared access enforcement point. Required.
	Guard *middleware.AccessGuard
	// TicketStorage backs the ticket routes; nil disables them.
	TicketStorage tickets.Storage
	// Dashboard serves guarded dashboard traffic at /dashboard/; nil disables it.
	Dashboard http.Handler
	// Logger for request logging. Required.
	Logger *observability.Logger
	// Metrics for request instrumentation; nil disables it.
	Metrics *observability.Metrics
	// RateLimit throttles callers before any policy evaluation; nil disables it.
	RateLimit *middleware.RateLimitMiddleware
	// AllowedOrigins for CORS. An empty list matches no origin, so no CORS
	// headers are emitted and cross-origin browser access stays disabled.
	AllowedOrigins []string
}

// NewServer assembles the router: shared middleware on every route, the access
// guard on everything the dashboard calls, and the standalone authorization
// check endpoint.
func NewServer(opts Options) *Server {
	s := &Server{
		router: mux.NewRouter(),
		guard:  opts.Guard,
		logger: opts.Logger,
	}

	s.router.Use(httputil.RequestIDMiddleware)
	s.router.Use(httputil.RecoveryMiddleware(opts.Logger))
	s.router.Use(httputil.LoggingMiddleware(opts.Logger, opts.Metrics))
	s.router.Use(httputil.CORSMiddleware(opts.AllowedOrigins))
	if opts.RateLimit != nil {
		s.router.Use(opts.RateLimit.Handler)
	}

	// Standalone enforcement point for services that cannot sit behind the
	// middleware or the proxy. Deliberately outside the guard: the decision is
	// the response.
	s.router.HandleFunc("/internal/authz/check", s.checkAccess).Methods("POST")

	if opts.TicketStorage != nil {
		guarded := s.router.PathPrefix("/api/v1").Subrouter()
		guarded.Use(opts.Guard.Handler)
		tickets.NewHandlers(opts.TicketStorage, opts.Logger).RegisterRoutes(guarded)
	}

	if opts.Dashboard != nil {
		s.router.PathPrefix("/dashboard/").Handler(opts.Dashboard)
	}

	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// checkAccess evaluates the caller's credentials against the dashboard policy
// and reports the outcome without serving anything else. A granted decision
// returns 200 with the decision label; every other outcome uses the same
// status mapping as the guarded routes.
func (s *Server) checkAccess(w http.ResponseWriter, r *http.Request) {
	ident := middleware.IdentityFromRequest(r)
	if ident == nil {
		httputil.WriteUnauthorized(w, "missing or malformed credentials")
		return
	}

	decision, err := s.guard.Check(r, ident)
	if !decision.Granted() {
		s.guard.WriteDecision(w, decision, err)
		return
	}

	httputil.WriteSuccess(w, map[string]string{
		"decision":   decision.String(),
		"subject_id": ident.SubjectID,
	})
}
