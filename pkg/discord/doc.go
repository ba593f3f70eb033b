// Package discord wraps the two Discord REST API calls the access engine
// needs: the authenticated user's guild list and their membership in one
// guild.
//
// # Overview
//
// Client performs single bearer-authenticated round trips and translates HTTP
// failures into typed errors. It never retries; bounded retry against
// transient failures is the access engine's policy (pkg/access).
//
// # Error Taxonomy
//
//	ErrUnauthorized         invalid/expired token (HTTP 401), never retryable
//	ErrForbidden            missing OAuth scope (HTTP 403)
//	RateLimitError          HTTP 429, carries Retry-After
//	StatusError             any other non-2xx status
//	NetworkError            transport failure or timeout
//	MalformedResponseError  undecodable 2xx body
//
// IsTransient reports whether the engine may retry: everything except
// ErrUnauthorized.
//
// # Usage Example
//
//	client := discord.NewClient("", discord.WithMetrics(metrics))
//	guilds, err := client.ListGuilds(ctx, token)
package discord
