// Package notifications sends ntfy alerts when elements finish. Without a
// configured topic every publish is a no-op.
package notifications
