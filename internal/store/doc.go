// Package store provides file-based persistence for the agent identity.
//
// All state lives under <home>/keys with owner-only permissions:
//
//   - agent.key      raw 32-byte seed (0600), or
//   - identity.enc   scrypt + ChaCha20-Poly1305 envelope when a passphrase
//     protects the key at rest
//   - recovery.txt   the BIP-39 recovery phrase (0600)
//   - DO_NOT_SHARE   a warning for humans browsing the directory
//
// Writes go through a temp file and rename so a crash never leaves a torn
// key file. Methods are concurrency-safe via internal locking.
package store
