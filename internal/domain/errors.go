package domain

import "errors"

var (
	// ErrIdentityCorrupt means the key file exists but cannot be parsed into
	// a valid key pair. Fatal: requires operator intervention.
	ErrIdentityCorrupt = errors.New("identity file corrupt")

	// ErrBadAddress means a string is not a well-formed agent address.
	ErrBadAddress = errors.New("malformed address")

	// ErrMalformedEnvelope means an envelope failed structural validation:
	// unknown kind, or a field required for that kind is missing.
	ErrMalformedEnvelope = errors.New("malformed envelope")

	// ErrProtocolViolation means a peer sent something its socket role does
	// not allow. Fatal to that socket only.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrAddressOffline means the target agent was not registered at request
	// time.
	ErrAddressOffline = errors.New("address offline")

	// ErrTimeout means no terminal envelope arrived within the deadline.
	ErrTimeout = errors.New("request timed out")

	// ErrHandlerFailure means the served agent's own logic failed while
	// producing a response.
	ErrHandlerFailure = errors.New("remote handler failed")
)

// ReasonError maps a wire error reason to the matching sentinel, so callers
// can use errors.Is regardless of which side produced the failure.
func ReasonError(r Reason) error {
	switch r {
	case ReasonAddressOffline:
		return ErrAddressOffline
	case ReasonTimeout:
		return ErrTimeout
	case ReasonHandlerFailure:
		return ErrHandlerFailure
	case ReasonBadSignature, ReasonProtocolViolation:
		return ErrProtocolViolation
	default:
		return ErrProtocolViolation
	}
}
