// Package daemonctl starts, probes and stops a muzzmand process from the
// command line. The daemon itself has no stop RPC; stopping is done with
// signals against the pid it reports on ping.
package daemonctl
