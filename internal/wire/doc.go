// Package wire holds the request/response types and method names of the
// daemon RPC protocol. Client and server import it so both sides agree on
// one definition of every call.
package wire
