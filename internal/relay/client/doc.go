// Package client is the agent-side runtime for the relay protocol.
//
// Serve keeps an announce socket open: it registers the agent's address with
// a signed ANNOUNCE, answers each INPUT through the supplied handler, and
// re-announces on a heartbeat interval. Transport loss is recovered with
// bounded exponential backoff plus a fresh ANNOUNCE, so a relay restart only
// costs the reconnect window.
//
// Connect returns a RemoteAgent: a callable proxy for one address. Each Send
// ships an INPUT with a fresh request id over a shared input socket and
// blocks (SendContext suspends) until the matching terminal envelope arrives
// or the deadline fires. Several calls may be in flight on the same socket at
// once; correlation is by request id alone.
//
// Neither side ever holds a network reference to the other — everything goes
// through the relay.
package client
