// Package store persists daemon state in SQLite so ids survive restarts.
//
// Only three things are written: loaded modules (by manifest path), locations
// flagged should_save, and the elements those locations hold. Enabled state
// and running work are never persisted; a restored element comes back
// disabled with its last progress and status.
//
// Schema changes bump the version in schema.go; users delete the database to
// adopt the new schema.
package store
