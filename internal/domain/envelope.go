package domain

// Kind discriminates the envelope variants exchanged over relay sockets.
// The set is closed: the codec rejects anything else at decode time.
type Kind string

const (
	KindAnnounce     Kind = "ANNOUNCE"
	KindInput        Kind = "INPUT"
	KindOutput       Kind = "OUTPUT"
	KindLookup       Kind = "LOOKUP"
	KindLookupResult Kind = "LOOKUP_RESULT"
	KindError        Kind = "ERROR"
)

// Reason is the machine-readable code carried by ERROR envelopes.
type Reason string

const (
	ReasonAddressOffline    Reason = "ADDRESS_OFFLINE"
	ReasonTimeout           Reason = "TIMEOUT"
	ReasonHandlerFailure    Reason = "HANDLER_FAILURE"
	ReasonProtocolViolation Reason = "PROTOCOL_VIOLATION"
	ReasonBadSignature      Reason = "BAD_SIGNATURE"
)

// Envelope is the unit exchanged over every relay socket. One struct covers
// all kinds; which fields are required depends on Kind and is enforced by the
// wire codec, not here.
type Envelope struct {
	Kind      Kind    `json:"type"`
	From      Address `json:"from,omitempty"`
	To        Address `json:"to,omitempty"`
	RequestID string  `json:"request_id,omitempty"`
	Payload   string  `json:"payload,omitempty"`

	// ERROR only.
	Reason Reason `json:"reason,omitempty"`
	Detail string `json:"detail,omitempty"`

	// LOOKUP_RESULT only.
	Online bool `json:"online,omitempty"`

	// ANNOUNCE only. Signature is hex over the deterministic claims
	// serialization (see wire.AnnounceClaims).
	Summary   string `json:"summary,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// Terminal reports whether the envelope ends a request/response exchange.
func (e Envelope) Terminal() bool {
	return e.Kind == KindOutput || e.Kind == KindError
}
