// Command muzzman is the command surface of the muzzman daemon.
//
// Every command except the config utilities connects to muzzmand over its
// unix socket, probes the default location to confirm the daemon answers,
// and then issues one remote operation per step. A failed step is reported
// on stderr and nothing further is attempted.
package main
