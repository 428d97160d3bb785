// Package audit provides the asynchronous audit event pipeline used by the
// lifecycle engine.
//
// Events are emitted into a buffered channel and forwarded to a caller
// supplied Sink by a single dispatcher goroutine, so sink latency never sits
// on a request path. Close drains the buffer before returning.
package audit
