// Package secrets stores small credentials such as the operator token.
package secrets

import (
	"errors"
	"fmt"

	"teleop/internal/config"
	"teleop/internal/paths"
)

// ErrNotFound is returned when no secret is stored under a key.
var ErrNotFound = errors.New("secret not found")

// Store sets, reads and removes secrets by key.
type Store interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// Open returns the store selected by cfg.
func Open(cfg config.SecretsConfig, p paths.HostPaths) (Store, error) {
	switch cfg.Backend {
	case config.SecretsKeyring, "":
		return NewKeyring(cfg.Service), nil
	case config.SecretsFile:
		return NewFile(p.SecretsFile, p.SecretsKey), nil
	default:
		return nil, fmt.Errorf("unknown secrets backend %q", cfg.Backend)
	}
}

func checkKey(key string) error {
	if key == "" {
		return errors.New("secret key is empty")
	}
	return nil
}
