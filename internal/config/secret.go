package config

import (
	"errors"
	"os"
	"strings"
)

// CompiledSecret holds the embedded secret provided at build time via
// -ldflags. When empty, ResolveSecret falls back to the TRAYMENU_SECRET
// environment variable for local development.
var CompiledSecret string

// ErrNoSecret reports that neither a compiled nor an environment secret is set.
var ErrNoSecret = errors.New("TRAYMENU_SECRET environment variable is required")

// ResolveSecret returns the passphrase protecting the configuration file.
func ResolveSecret() (string, error) {
	if compiled := strings.TrimSpace(CompiledSecret); compiled != "" {
		return compiled, nil
	}
	if secret := strings.TrimSpace(os.Getenv("TRAYMENU_SECRET")); secret != "" {
		return secret, nil
	}
	return "", ErrNoSecret
}
