// Package crypto exposes the signing primitives behind agent identities.
//
// Contents
//
//   - Ed25519 key generation, seed derivation, signing and verification
//     (GenerateEd25519, FromSeed, SignEd25519, VerifyEd25519)
//   - Agent address derivation (AddressFromPub)
//
// All functions work on the fixed-size array types defined in internal/domain
// to avoid accidental reallocations. The address of an agent is its Ed25519
// public key, hex-encoded with a "0x" prefix, so signature verification needs
// nothing beyond the address itself.
package crypto
