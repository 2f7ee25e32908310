// Package rate implements Redis-backed fixed-window attempt counters used to throttle
// password sign-in in the in-process identity provider.
//
// A window starts at the first failure: INCR, then EXPIRE when the count is 1. Keys are
// "<prefix>:<identifier>".
package rate
