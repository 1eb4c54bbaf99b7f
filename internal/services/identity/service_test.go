package identity_test

import (
	"errors"
	"strings"
	"testing"

	"shadowbar/internal/services/identity"
	"shadowbar/internal/store"
)

func TestLoadOrCreate_StableAcrossCalls(t *testing.T) {
	svc := identity.New(store.NewFileStore(t.TempDir()))

	first, created, err := svc.LoadOrCreate("")
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if !created {
		t.Fatal("first call should create")
	}

	second, created, err := svc.LoadOrCreate("")
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if created {
		t.Fatal("second call should load")
	}
	if identity.Address(first) != identity.Address(second) {
		t.Fatalf("address changed across calls: %s vs %s",
			identity.Address(first), identity.Address(second))
	}
}

func TestGenerate_PhraseRecoversSameAddress(t *testing.T) {
	svc := identity.New(store.NewFileStore(t.TempDir()))

	id, phrase, err := svc.Generate("")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := len(strings.Fields(phrase)); got != 12 {
		t.Fatalf("phrase has %d words, want 12", got)
	}

	// Recover into a fresh store, as after losing the key file.
	other := identity.New(store.NewFileStore(t.TempDir()))
	recovered, err := other.Recover("", phrase)
	if err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if identity.Address(recovered) != identity.Address(id) {
		t.Fatal("recovered identity has a different address")
	}
}

func TestRecover_RejectsBadPhrase(t *testing.T) {
	svc := identity.New(store.NewFileStore(t.TempDir()))
	if _, err := svc.Recover("", "definitely not a bip39 phrase"); !errors.Is(err, identity.ErrBadRecoveryPhrase) {
		t.Fatalf("got %v, want ErrBadRecoveryPhrase", err)
	}
}

func TestLoad_WithoutIdentityFails(t *testing.T) {
	svc := identity.New(store.NewFileStore(t.TempDir()))
	if _, err := svc.Load(""); err == nil {
		t.Fatal("expected error when no identity exists")
	}
}
