package identity

import (
	"errors"
	"fmt"
	"os"

	bip39 "github.com/tyler-smith/go-bip39"

	"shadowbar/internal/crypto"
	"shadowbar/internal/domain"
)

// ErrBadRecoveryPhrase is returned when a phrase fails BIP-39 validation.
var ErrBadRecoveryPhrase = errors.New("invalid recovery phrase")

// Service manages identity key creation and access using a backing store.
type Service struct {
	store domain.IdentityStore
}

// New returns an identity service backed by the given store.
func New(s domain.IdentityStore) *Service { return &Service{store: s} }

// Generate creates a new identity with a fresh recovery phrase and persists
// both.
func (s *Service) Generate(passphrase string) (domain.Identity, string, error) {
	entropy, err := bip39.NewEntropy(128) // 128 bits = 12 words
	if err != nil {
		return domain.Identity{}, "", err
	}
	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return domain.Identity{}, "", err
	}

	id := fromPhrase(phrase)
	if err := s.store.SaveIdentity(passphrase, id); err != nil {
		return domain.Identity{}, "", err
	}
	if err := s.store.SaveRecoveryPhrase(phrase); err != nil {
		return domain.Identity{}, "", err
	}
	return id, phrase, nil
}

// Recover rebuilds the identity from its recovery phrase and persists it.
func (s *Service) Recover(passphrase, phrase string) (domain.Identity, error) {
	if !bip39.IsMnemonicValid(phrase) {
		return domain.Identity{}, ErrBadRecoveryPhrase
	}
	id := fromPhrase(phrase)
	if err := s.store.SaveIdentity(passphrase, id); err != nil {
		return domain.Identity{}, err
	}
	if err := s.store.SaveRecoveryPhrase(phrase); err != nil {
		return domain.Identity{}, err
	}
	return id, nil
}

// LoadOrCreate loads the stored identity, generating one on first use.
func (s *Service) LoadOrCreate(passphrase string) (domain.Identity, bool, error) {
	id, err := s.store.LoadIdentity(passphrase)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return domain.Identity{}, false, err
	}
	id, _, err = s.Generate(passphrase)
	if err != nil {
		return domain.Identity{}, false, err
	}
	return id, true, nil
}

// Load loads the stored identity without creating one.
func (s *Service) Load(passphrase string) (domain.Identity, error) {
	id, err := s.store.LoadIdentity(passphrase)
	if errors.Is(err, os.ErrNotExist) {
		return domain.Identity{}, fmt.Errorf("no identity found, run init first: %w", err)
	}
	return id, err
}

// Address is a convenience for the derived agent address.
func Address(id domain.Identity) domain.Address {
	return crypto.AddressFromPub(id.Pub)
}

// fromPhrase derives the key pair the way the address scheme fixes it:
// BIP-39 seed, first 32 bytes, Ed25519.
func fromPhrase(phrase string) domain.Identity {
	seedBytes := bip39.NewSeed(phrase, "")

	var seed domain.Seed
	copy(seed[:], seedBytes[:len(seed)])
	return crypto.FromSeed(seed)
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)
