package domain

// IdentityStore persists the long-term identity keys and recovery phrase.
type IdentityStore interface {
	// SaveIdentity writes the seed to disk. With a non-empty passphrase the
	// seed is encrypted at rest; otherwise it is stored raw with owner-only
	// permissions.
	SaveIdentity(passphrase string, id Identity) error
	// LoadIdentity reads the seed back. Returns ErrIdentityCorrupt (wrapped)
	// when a file exists but cannot be parsed.
	LoadIdentity(passphrase string) (Identity, error)
	// HasIdentity reports whether a key file exists.
	HasIdentity() (bool, error)

	SaveRecoveryPhrase(phrase string) error
	// LoadRecoveryPhrase returns ok=false when no phrase was stored.
	LoadRecoveryPhrase() (phrase string, ok bool, err error)
}

// IdentityService creates, recovers and loads the local agent identity.
type IdentityService interface {
	// Generate creates a fresh identity plus its recovery phrase and
	// persists both.
	Generate(passphrase string) (Identity, string, error)
	// Recover rebuilds the identity from a recovery phrase and persists it.
	Recover(passphrase, phrase string) (Identity, error)
	// LoadOrCreate loads the stored identity, generating one on first use.
	// created reports whether a new identity was made.
	LoadOrCreate(passphrase string) (id Identity, created bool, err error)
	// Load loads the stored identity without creating one.
	Load(passphrase string) (Identity, error)
}
