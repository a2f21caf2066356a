// Package poller provides the transport and cadence behind a health badge.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with per-request timeout and body size limit
//   - [Scheduler]: fires poll cycles immediately and then on a fixed interval
//   - [Sequencer]: dispatch sequence numbers used to discard stale completions
//
// Users of the healthbadge library should not need to interact with this
// package directly. Configuration is done through the root package.
package poller
