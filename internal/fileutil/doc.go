// Package fileutil holds the cancellable, progress-reporting file copy used
// by the builtin file module.
package fileutil
