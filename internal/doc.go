// Package internal contains helpers that are private to goSession, currently the opaque
// refresh token codec used by the in-process identity provider.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - mailbox: unbounded FIFO used by the session writer and observers
//   - metrics: lock-free counters and the init latency histogram
//
// Nothing here appears in the public goSession API.
package internal
