// Package identity manages creation, recovery and loading of the local agent
// identity.
//
// A new identity starts from a 12-word BIP-39 recovery phrase; the Ed25519
// key pair is derived from the phrase's seed, and the agent address from the
// public key. The phrase is generated exactly once and persisted next to the
// key — losing both means losing the address permanently.
package identity
