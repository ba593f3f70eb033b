// Package tickets stores support tickets and moderation warnings backing the
// dashboard.
//
// A Store persists rows in PostgreSQL; CachedStore layers an expiring LRU over
// single-ticket reads so the dashboard's refresh polling does not hammer the
// database. Listings always go to the database, since a bounded LRU cannot
// answer them consistently.
//
// Handlers exposes the REST surface. Every route is expected to sit behind the
// access guard; attribution (who opened a ticket, who issued a warning) comes
// from the guard-resolved identity, never from the request body.
package tickets
