// Package modules defines the capability a module plugs into the daemon and
// the machinery that turns a manifest on disk into a loaded module.
//
// A Plugin decides whether it can handle an element (Accepts), may rewrite
// the element's data into its canonical form (Normalize), prepares the
// element (Init) and does the work (Run). Plugins are registered by kind in
// a Registry; a TOML manifest names the kind together with the module's
// display name, description and proxy setting.
package modules
