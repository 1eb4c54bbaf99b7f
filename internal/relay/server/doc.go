// Package server implements the relay: the rendezvous point agents announce
// to and callers send requests through.
//
// Three WebSocket endpoints carry the protocol:
//
//	/ws/announce   agents register (signed ANNOUNCE) and receive INPUTs;
//	               OUTPUT/ERROR flows back over the same socket
//	/ws/input      callers send INPUTs and wait for the matching terminal
//	               envelope, correlated by request id
//	/ws/lookup     anonymous reachability queries, one round trip each
//
// Two HTTP endpoints expose read-only introspection:
//
//	GET /          {"service","agents_online","pending_requests"}
//	GET /agents    currently registered addresses with summaries
//
// All state is held in memory: a Registry (address to live channel) and a
// Pending table (request id to waiting channel). A relay restart drops both;
// serving agents are expected to detect the disconnect and re-announce.
// Each structure is guarded by a single mutex that is never held across
// socket I/O.
package server
