package crypto

import (
	"crypto/ed25519"
	"crypto/rand"

	"shadowbar/internal/domain"
)

// GenerateEd25519 returns a new Ed25519 identity from random entropy.
func GenerateEd25519() (domain.Identity, error) {
	var seed domain.Seed
	if _, err := rand.Read(seed[:]); err != nil {
		return domain.Identity{}, err
	}
	return FromSeed(seed), nil
}

// FromSeed deterministically derives the full identity from a 32-byte seed.
func FromSeed(seed domain.Seed) domain.Identity {
	sk := ed25519.NewKeyFromSeed(seed[:])

	id := domain.Identity{Seed: seed}
	copy(id.Priv[:], sk)
	copy(id.Pub[:], sk.Public().(ed25519.PublicKey))
	return id
}

// SignEd25519 signs msg with priv and returns the signature.
func SignEd25519(priv domain.Ed25519Private, msg []byte) []byte {
	return ed25519.Sign(ed25519.PrivateKey(priv[:]), msg)
}

// VerifyEd25519 verifies sig over msg with pub.
func VerifyEd25519(pub domain.Ed25519Public, msg, sig []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pub[:]), msg, sig)
}
