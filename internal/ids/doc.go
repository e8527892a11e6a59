// Package ids defines the opaque identifiers that name daemon-side objects.
//
// ModuleID, LocationID, and ElementID are small comparable values backed by a
// UUID. Each has a canonical text form with a kind prefix ("mod-", "loc-",
// "el-") so ids survive a trip through command arguments and JSON without
// being confused for one another. An id carries no liveness guarantee: the
// daemon validates it lazily on every call.
package ids
