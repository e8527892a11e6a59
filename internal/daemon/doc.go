// Package daemon owns the location tree, the element lifecycle and the
// module table behind the muzzman socket.
//
// The Daemon enforces single-instance execution with a file lock, restores
// persisted modules, locations and elements on start, and runs enabled
// elements on their own goroutines. Every exported method is one atomic
// operation; the IPC server maps them one-to-one onto RPC methods.
package daemon
