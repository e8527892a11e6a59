// Package session is the client core for talking to a running daemon.
//
// Connect establishes that a daemon answers within a bounded timeout and
// returns a Session. The Session hands out ModuleRef, LocationRef, and
// ElementRef values: thin proxies bound to one identifier. Every accessor and
// mutator on a reference is exactly one request/response round trip through
// the Transport. Nothing is cached, so two getter calls may observe different
// daemon states, and references do not keep their object alive: once an
// object is destroyed every call on its reference fails with
// failure.ErrNotFound.
//
// There is no automatic retry anywhere in this package. Failures surface to
// the caller wrapped in a failure.OpError naming the operation and id.
package session
