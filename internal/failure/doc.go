// Package failure defines the error taxonomy shared by the daemon and its
// clients.
//
// Sentinel errors classify every failure a reference operation can surface.
// OpError attaches the operation name and object id so callers can report
// actionable context, and Encode/Decode carry the classification across the
// RPC boundary, which only transports error strings.
package failure
