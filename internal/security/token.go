package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"os"
	"strings"

	"github.com/example/traymenu/internal/config"
)

const serviceTokenPrefix = "traymenu-service|"

// TokenFileEnv names the variable pointing at a file holding the service
// token. Session agents receive their token this way.
const TokenFileEnv = "TRAYMENU_SERVICE_TOKEN_FILE"

// ResolveServiceToken returns the configured IPC token, deriving a stable value
// from the config secret when no explicit token is provided.
func ResolveServiceToken(secret string) string {
	if compiled := strings.TrimSpace(config.CompiledSecret); compiled != "" {
		return DeriveServiceToken(compiled)
	}

	token := strings.TrimSpace(os.Getenv("TRAYMENU_SERVICE_TOKEN"))
	if token != "" {
		return token
	}

	if path := strings.TrimSpace(os.Getenv(TokenFileEnv)); path != "" {
		if raw, err := os.ReadFile(path); err == nil {
			if token := strings.TrimSpace(string(raw)); token != "" {
				return token
			}
		}
	}

	return DeriveServiceToken(secret)
}

// DeriveServiceToken hashes the provided secret into a deterministic token.
func DeriveServiceToken(secret string) string {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(serviceTokenPrefix + secret))
	return hex.EncodeToString(sum[:])
}

// TokensEqual compares two tokens in constant time. An empty expected token
// never matches.
func TokensEqual(expected, presented string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) == 1
}
