// Package actor is a minimal in-process actor runtime.
//
// Each spawned actor owns a mailbox processed by a single goroutine, so
// actor state is only ever mutated from that goroutine. The runtime
// provides best-effort sends, ask-style request/response with a timeout,
// watch notifications when an actor stops, and named single-shot timers.
//
// Messages sent to a stopped actor are routed to the dead letter log
// rather than surfaced as errors.
package actor
