// Command muzzmand runs the muzzman daemon in the foreground. Stop it with
// SIGINT or SIGTERM; elements that were running are restored as stopped on
// the next start.
package main
