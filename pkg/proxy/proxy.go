// Package proxy provides the forwarding enforcement point: a reverse proxy in
// front of the dashboard upstream that runs every request through the access
// guard before forwarding.
package proxy

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	gatehttputil "github.com/modfleet/gatehouse/pkg/httputil"
	"github.com/modfleet/gatehouse/pkg/middleware"
	"github.com/modfleet/gatehouse/pkg/observability"
)

// Handler guards and forwards dashboard traffic
type Handler struct {
	guard    *middleware.AccessGuard
	upstream *httputil.ReverseProxy
	logger   *observability.Logger
}

// New creates a guarded reverse proxy for the given upstream URL
func New(upstreamURL string, guard *middleware.AccessGuard, logger *observability.Logger) (*Handler, error) {
	target, err := url.Parse(upstreamURL)
	if err != nil {
		return nil, err
	}

	rp := httputil.NewSingleHostReverseProxy(target)
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.WithError(err).WithField("path", r.URL.Path).Error("dashboard upstream unreachable")
		gatehttputil.WriteServiceUnavailable(w, "dashboard temporarily unavailable", 5)
	}

	return &Handler{
		guard:    guard,
		upstream: rp,
		logger:   logger,
	}, nil
}

// ServeHTTP enforces the access policy, then forwards. The subject header is
// re-set from the verified identity so the upstream cannot be fed a spoofed
// value through other headers.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ident := middleware.IdentityFromRequest(r)
	if ident == nil {
		gatehttputil.WriteUnauthorized(w, "missing or malformed credentials")
		return
	}

	decision, err := h.guard.Check(r, ident)
	if !decision.Granted() {
		h.guard.WriteDecision(w, decision, err)
		return
	}

	r.Header.Set(middleware.SubjectHeader, ident.SubjectID)
	h.upstream.ServeHTTP(w, r)
}
