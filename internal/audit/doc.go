// Package audit relays session lifecycle audit events to a pluggable sink.
//
// The manager emits from its writer goroutine; a [Dispatcher] buffers events and hands them
// to the [Sink] from one relay goroutine so sinks see emit order. Each event carries a
// sequence number so consumers can spot events dropped under DropIfFull.
//
// The package decides nothing about which events exist. It must not import goSession.
package audit
