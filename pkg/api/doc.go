// Package api assembles the gatehouse HTTP surface.
//
// Three enforcement points share one AccessGuard so the policy and its
// status mapping cannot drift:
//
//   - the guarded /api/v1 subrouter (middleware enforcement)
//   - the /dashboard/ reverse proxy (forwarding enforcement)
//   - POST /internal/authz/check (standalone decision endpoint)
//
// The check endpoint exists for sidecars and batch jobs that need a yes/no
// before doing work of their own; it evaluates the same engine and returns
// the same 401/403/503 mapping the guarded routes would.
package api
