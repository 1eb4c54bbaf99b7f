package app

import (
	"shadowbar/internal/domain"
	identitysvc "shadowbar/internal/services/identity"
	"shadowbar/internal/store"
)

// Wire bundles the stores and services for the CLI.
type Wire struct {
	Config   Config
	Identity domain.IdentityStore
	IDs      domain.IdentityService
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	cfg = cfg.FromEnv()

	identityStore := store.NewFileStore(cfg.Home)
	identitySvc := identitysvc.New(identityStore)

	return &Wire{
		Config:   cfg,
		Identity: identityStore,
		IDs:      identitySvc,
	}, nil
}
