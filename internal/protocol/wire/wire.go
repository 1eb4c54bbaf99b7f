package wire

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"shadowbar/internal/crypto"
	"shadowbar/internal/domain"
)

// Encode serializes an envelope after validating it.
func Encode(env domain.Envelope) ([]byte, error) {
	if err := Validate(env); err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// Decode parses and structurally validates an envelope.
func Decode(data []byte) (domain.Envelope, error) {
	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return domain.Envelope{}, fmt.Errorf("%w: %v", domain.ErrMalformedEnvelope, err)
	}
	if err := Validate(env); err != nil {
		return domain.Envelope{}, err
	}
	return env, nil
}

// Validate checks that every field the envelope's kind requires is present.
func Validate(env domain.Envelope) error {
	switch env.Kind {
	case domain.KindAnnounce:
		if env.From == "" {
			return missing("ANNOUNCE", "from")
		}
	case domain.KindInput:
		if env.To == "" {
			return missing("INPUT", "to")
		}
		if env.RequestID == "" {
			return missing("INPUT", "request_id")
		}
	case domain.KindOutput:
		if env.RequestID == "" {
			return missing("OUTPUT", "request_id")
		}
	case domain.KindError:
		if env.Reason == "" {
			return missing("ERROR", "reason")
		}
	case domain.KindLookup:
		if env.To == "" {
			return missing("LOOKUP", "to")
		}
	case domain.KindLookupResult:
		if env.To == "" {
			return missing("LOOKUP_RESULT", "to")
		}
	default:
		return fmt.Errorf("%w: unrecognized kind %q", domain.ErrMalformedEnvelope, env.Kind)
	}
	return nil
}

func missing(kind, field string) error {
	return fmt.Errorf("%w: %s requires %s", domain.ErrMalformedEnvelope, kind, field)
}

// announceClaims is the portion of an ANNOUNCE an agent signs. Field order is
// fixed; Marshal on a struct is deterministic, so both sides produce the same
// bytes.
type announceClaims struct {
	Type      domain.Kind    `json:"type"`
	Address   domain.Address `json:"address"`
	Summary   string         `json:"summary"`
	Timestamp int64          `json:"timestamp"`
}

func announceSigningBytes(env domain.Envelope) []byte {
	b, _ := json.Marshal(announceClaims{
		Type:      domain.KindAnnounce,
		Address:   env.From,
		Summary:   env.Summary,
		Timestamp: env.Timestamp,
	})
	return b
}

// NewAnnounce builds a signed ANNOUNCE for the given identity.
func NewAnnounce(id domain.Identity, summary string) domain.Envelope {
	env := domain.Envelope{
		Kind:      domain.KindAnnounce,
		From:      crypto.AddressFromPub(id.Pub),
		Summary:   summary,
		Timestamp: time.Now().Unix(),
	}
	sig := crypto.SignEd25519(id.Priv, announceSigningBytes(env))
	env.Signature = hex.EncodeToString(sig)
	return env
}

// VerifyAnnounce checks the ANNOUNCE signature against the sender address.
func VerifyAnnounce(env domain.Envelope) bool {
	pub, err := env.From.PublicKey()
	if err != nil {
		return false
	}
	sig, err := hex.DecodeString(env.Signature)
	if err != nil {
		return false
	}
	return crypto.VerifyEd25519(pub, announceSigningBytes(env), sig)
}
