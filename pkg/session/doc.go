// Package session provides the in-memory conversation session store.
//
// Sessions are keyed by a caller-supplied identifier and hold the
// provider-maintained conversation history for one ongoing conversation.
// The store lives for the life of the process: there is no persistence,
// no TTL and no eviction, so memory grows with distinct session
// identifiers. That is an accepted limitation; the stats reporter exists
// so growth stays observable.
package session
