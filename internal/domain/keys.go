package domain

// Ed25519Public is a signing public key.
type Ed25519Public [32]byte

func (p Ed25519Public) Slice() []byte { return p[:] }

// Ed25519Private is a signing private key (ed25519.PrivateKey layout).
type Ed25519Private [64]byte

func (k Ed25519Private) Slice() []byte { return k[:] }

// Seed is the 32-byte secret scalar an Ed25519 key pair is derived from.
// It is what gets persisted to disk and what the recovery phrase encodes.
type Seed [32]byte

func (s Seed) Slice() []byte { return s[:] }

// Identity holds the long-term signing keys stored locally.
type Identity struct {
	Seed Seed
	Pub  Ed25519Public
	Priv Ed25519Private
}
