// Package session provides the Redis-backed session store for the job-board
// backend: creation, lookup, sliding-TTL refresh, logout, logout-all, and
// per-user listing.
//
// # Design
//
// Each session lives under its own payload key with a sliding TTL. A per-user
// sorted set, scored by last-refresh time in epoch millis, acts as an LRU
// ledger for the concurrent-session cap and for listing. The payload key is
// authoritative; the index is an access path that may briefly reference
// expired sessions, healed lazily on the next ListForUser.
//
// # Architecture boundaries
//
// This package owns key layout and lifecycle only. It does NOT authenticate
// users, parse credentials, or touch the relational layer. Absent and corrupt
// sessions both read as nil; only Redis transport failures return errors.
package session
