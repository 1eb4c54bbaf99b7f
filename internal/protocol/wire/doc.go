// Package wire encodes and decodes relay envelopes.
//
// The codec enforces structural completeness only: Decode rejects unknown
// kinds and envelopes missing a field their kind requires, returning
// domain.ErrMalformedEnvelope. Semantic checks (address reachability, request
// correlation) belong to the relay router.
//
// It also defines the deterministic claims serialization that ANNOUNCE
// signatures cover, shared by the announcing client and the verifying relay.
package wire
