// Package preflight provides readiness checks for the filesystem paths the
// muzzman daemon depends on.
//
// muzzmand runs RunAll before taking the daemon lock and refuses to start
// when a required directory is unusable. The default location directory is
// created lazily, so it only needs a writable ancestor.
package preflight
