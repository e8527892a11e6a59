// Package logs reads the daemon log file for `muzzman logs`: the last N
// lines, and a polling follow mode that tracks a byte offset.
package logs
