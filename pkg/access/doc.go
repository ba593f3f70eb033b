// Package access implements the dashboard access gate: a single decision
// engine consumed by every enforcement point, with a TTL'd decision cache and
// bounded retry against the identity gateway.
//
// # Decision Flow
//
//	Evaluate(subject, token)
//	  cache hit (grant)  -> Granted, zero gateway calls
//	  cache miss         -> up to 3 attempts of:
//	                          ListGuilds    401 -> Unauthorized (no retry)
//	                          not a member      -> DeniedNotMember (no retry)
//	                          GetGuildMember roles ∩ required != ∅ -> Granted
//	                          otherwise         -> DeniedNoRole (no retry)
//	                        transient errors back off 100ms then 200ms
//	  retries exhausted  -> TransientFailure(last reason)
//
// # Cache Policy
//
// Only grants are cached. Denials and failures invalidate instead, so a
// transient upstream hiccup or a role-propagation delay never locks a
// legitimate user out for a full TTL window. The cost is repeating the two
// upstream calls on every request for denied users, which is acceptable:
// denial is already the safe default.
//
// Two Cache implementations exist: MemoryCache (per-process, lazy expiry) and
// RedisCache (shared across replicas, expiry via key TTL).
package access
