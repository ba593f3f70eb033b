// Package httputil provides shared HTTP plumbing: JSON response helpers,
// request parsing helpers, and generic middleware (request id, structured
// request logging with metrics, panic recovery, CORS).
//
// Access enforcement middleware lives in pkg/middleware; this package stays
// policy-free.
package httputil
