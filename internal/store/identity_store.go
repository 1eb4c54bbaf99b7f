package store

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"shadowbar/internal/crypto"
	"shadowbar/internal/domain"
)

const (
	keyFile      = "agent.key"    // raw seed, no passphrase
	encFile      = "identity.enc" // scrypt/chacha envelope, passphrase set
	recoveryFile = "recovery.txt"
	warningFile  = "DO_NOT_SHARE"
)

const warningText = `WARNING: PRIVATE KEYS - DO NOT SHARE

This directory contains private cryptographic keys.
Never share these files or commit them to version control.
Anyone with these keys can impersonate your agent.

Files:
- agent.key / identity.enc: your agent's private signing key
- recovery.txt: 12-word recovery phrase

Keep these files secure and backed up.
`

// ErrPassphraseRequired is returned when the identity is encrypted at rest
// and LoadIdentity is called without a passphrase.
var ErrPassphraseRequired = errors.New("identity is passphrase-protected")

// FileStore persists the identity seed and recovery phrase under <home>/keys.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(home string) *FileStore {
	return &FileStore{dir: filepath.Join(home, "keys")}
}

func (s *FileStore) SaveIdentity(passphrase string, id domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	if err := s.writeWarning(); err != nil {
		return err
	}

	if passphrase == "" {
		return writeFile(filepath.Join(s.dir, keyFile), id.Seed.Slice(), 0o600)
	}
	blob, err := encrypt(passphrase, id.Seed.Slice())
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(s.dir, encFile), blob, 0o600)
}

func (s *FileStore) LoadIdentity(passphrase string) (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if blob, err := readFile(filepath.Join(s.dir, encFile)); err != nil {
		return domain.Identity{}, err
	} else if blob != nil {
		if passphrase == "" {
			return domain.Identity{}, ErrPassphraseRequired
		}
		raw, err := decrypt(passphrase, blob)
		if err != nil {
			return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrIdentityCorrupt, err)
		}
		return identityFromSeedBytes(raw)
	}

	raw, err := readFile(filepath.Join(s.dir, keyFile))
	if err != nil {
		return domain.Identity{}, err
	}
	if raw == nil {
		return domain.Identity{}, os.ErrNotExist
	}
	return identityFromSeedBytes(raw)
}

func (s *FileStore) HasIdentity() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range []string{keyFile, encFile} {
		if _, err := os.Stat(filepath.Join(s.dir, name)); err == nil {
			return true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return false, err
		}
	}
	return false, nil
}

func (s *FileStore) SaveRecoveryPhrase(phrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	return writeFile(filepath.Join(s.dir, recoveryFile), []byte(phrase+"\n"), 0o600)
}

func (s *FileStore) LoadRecoveryPhrase() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := readFile(filepath.Join(s.dir, recoveryFile))
	if err != nil {
		return "", false, err
	}
	if b == nil {
		return "", false, nil
	}
	return strings.TrimSpace(string(b)), true, nil
}

func (s *FileStore) writeWarning() error {
	path := filepath.Join(s.dir, warningFile)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return writeFile(path, []byte(warningText), 0o600)
}

func identityFromSeedBytes(raw []byte) (domain.Identity, error) {
	var seed domain.Seed
	if len(raw) != len(seed) {
		return domain.Identity{}, fmt.Errorf("%w: key file is %d bytes, want %d",
			domain.ErrIdentityCorrupt, len(raw), len(seed))
	}
	copy(seed[:], raw)
	return crypto.FromSeed(seed), nil
}

// ---------- scrypt envelope ----------

// scrypt parameters fixed here; tune as needed.
func scryptParamsDefault() (N, r, p int) { return 1 << 15, 8, 1 }

type envelope struct {
	Salt  []byte
	Nonce []byte
	CT    []byte
}

func encrypt(passphrase string, plaintext []byte) ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	N, r, p := scryptParamsDefault()
	key, err := scrypt.Key([]byte(passphrase), salt, N, r, p, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	ct := aead.Seal(nil, nonce, plaintext, salt)
	return json.Marshal(envelope{Salt: salt, Nonce: nonce, CT: ct})
}

func decrypt(passphrase string, blob []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, err
	}
	N, r, p := scryptParamsDefault()
	key, err := scrypt.Key([]byte(passphrase), env.Salt, N, r, p, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, env.Nonce, env.CT, env.Salt)
}

// Compile-time assertion that FileStore implements domain.IdentityStore.
var _ domain.IdentityStore = (*FileStore)(nil)
