package crypto

import (
	"encoding/hex"

	"shadowbar/internal/domain"
)

// AddressFromPub derives the stable agent address from a public key.
func AddressFromPub(pub domain.Ed25519Public) domain.Address {
	return domain.Address("0x" + hex.EncodeToString(pub[:]))
}
