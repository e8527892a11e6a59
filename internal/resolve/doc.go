// Package resolve turns a URL into a running element.
//
// Resolver drives one element through the resolution state machine:
// assign data, let the daemon bind a module, re-assert the caller's keys
// over whatever the module normalized, initialize, then enable. Only a
// failed resolution cleans up after itself (the element is destroyed);
// every other failure leaves the element in place and reports the last
// stage reached so the caller can retry or destroy it. Observe polls a
// running element until it is disabled, and Recover inspects an element
// left behind by an interrupted workflow and moves it forward or removes
// it.
package resolve
