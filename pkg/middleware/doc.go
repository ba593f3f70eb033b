// Package middleware provides the HTTP enforcement layer around the access
// decision engine.
//
// # Overview
//
// AccessGuard is the single outcome-to-response mapping shared by every
// enforcement point: the dashboard route guard (Handler), the proxy
// forwarding guard (pkg/proxy), and the standalone authorization check
// endpoint (pkg/api). All three call through one guard so the status mapping
// cannot drift between them.
//
// RateLimitMiddleware throttles callers before any policy evaluation runs,
// keyed by subject id when credentials are present and by client IP otherwise.
//
// # Status Mapping
//
//	Granted            request proceeds, identity in context
//	Unauthorized       401, sign in again
//	DeniedNotMember    403, insufficient permissions
//	DeniedNoRole       403, insufficient permissions
//	TransientFailure   503 with Retry-After, caller may retry
//
// # Usage
//
//	guard := middleware.NewAccessGuard(engine, middleware.WithGuardLogger(logger))
//	router.Use(guard.Handler)
package middleware
