// Package supervisor owns the feed lifecycle: it resolves the option
// chain to subscribe to, runs one feed session at a time, probes spot
// for ATM drift, and restarts after a fixed delay whenever a session
// ends for any reason.
package supervisor
