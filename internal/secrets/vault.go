// Package secrets holds process secrets in memory and reloads them on demand.
package secrets

import (
	"fmt"
	"strings"
	"sync"
)

// Loader retrieves secrets from a source (env vars, file, remote vault, etc.).
type Loader func() (map[string]string, error)

// Vault holds secret values and swaps them atomically on reload.
type Vault struct {
	mu     sync.RWMutex
	values map[string]string
	loader Loader
}

// NewVault creates a Vault, calling the loader once to populate initial values.
func NewVault(loader Loader) (*Vault, error) {
	vals, err := loader()
	if err != nil {
		return nil, fmt.Errorf("initial secret load: %w", err)
	}
	return &Vault{values: vals, loader: loader}, nil
}

// Get returns the secret for key, or an empty string if not found.
func (v *Vault) Get(key string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.values[key]
}

// Require returns the secret for key as bytes, failing when it is unset.
func (v *Vault) Require(key string) ([]byte, error) {
	s := v.Get(key)
	if s == "" {
		return nil, fmt.Errorf("secret %s is not set", key)
	}
	return []byte(s), nil
}

// Redacted returns a masked form of the secret suitable for logs.
func (v *Vault) Redacted(key string) string {
	s := v.Get(key)
	switch {
	case s == "":
		return ""
	case len(s) <= 4:
		return "****"
	default:
		return s[:2] + strings.Repeat("*", 4)
	}
}

// Reload calls the loader and swaps in the new values atomically.
// If the loader returns an error, existing values are preserved.
func (v *Vault) Reload() error {
	newVals, err := v.loader()
	if err != nil {
		return fmt.Errorf("reload secrets: %w", err)
	}
	v.mu.Lock()
	v.values = newVals
	v.mu.Unlock()
	return nil
}
