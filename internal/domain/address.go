package domain

import (
	"encoding/hex"
	"strings"
)

// addressHexLen is the number of hex characters after the "0x" prefix
// (32 public key bytes).
const addressHexLen = 64

// Address is the public, stable identifier of an agent: "0x" followed by the
// lowercase hex encoding of its Ed25519 public key.
type Address string

// Valid reports whether a is structurally well formed.
func (a Address) Valid() bool {
	s := string(a)
	if len(s) != 2+addressHexLen || !strings.HasPrefix(s, "0x") {
		return false
	}
	for _, c := range s[2:] {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// PublicKey extracts the Ed25519 public key the address encodes.
func (a Address) PublicKey() (Ed25519Public, error) {
	var pub Ed25519Public
	if !a.Valid() {
		return pub, ErrBadAddress
	}
	b, err := hex.DecodeString(string(a)[2:])
	if err != nil {
		return pub, ErrBadAddress
	}
	copy(pub[:], b)
	return pub, nil
}

// Short returns a truncated display form, e.g. "0x3d40…660c".
func (a Address) Short() string {
	s := string(a)
	if len(s) <= 12 {
		return s
	}
	return s[:6] + "…" + s[len(s)-4:]
}

func (a Address) String() string { return string(a) }
