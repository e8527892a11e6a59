// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// The server registers one receiver named after wire.Service whose methods
// map one-to-one onto daemon operations. Errors cross the socket as
// failure.Encode strings and the client decodes them back into the failure
// taxonomy, so errors.Is works on both sides. The client implements
// session.Transport: each call is bounded by its context and a missing or
// stale socket is reported as failure.ErrNotRunning.
package ipc
