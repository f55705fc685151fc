// Package channel implements the bidirectional UDP datagram channel: a
// session controller that owns one socket, one cleanup signaler, a
// receive-loop worker and an optional heartbeat watchdog.
//
// Lifecycle is a one-way state machine: Fresh -> Bound -> Ready ->
// Running -> Closed. Each lifecycle operation (Setup, Handshake, Start,
// Send, Close) documents which states it accepts.
package channel
