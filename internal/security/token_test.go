package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveServiceToken(t *testing.T) {
	a := DeriveServiceToken("secret")
	assert.Len(t, a, 64)
	assert.Equal(t, a, DeriveServiceToken("  secret "))
	assert.NotEqual(t, a, DeriveServiceToken("other"))
	assert.Empty(t, DeriveServiceToken(" "))
}

func TestResolveServiceTokenPrefersEnvironment(t *testing.T) {
	t.Setenv("TRAYMENU_SERVICE_TOKEN", "explicit")
	assert.Equal(t, "explicit", ResolveServiceToken("secret"))

	t.Setenv("TRAYMENU_SERVICE_TOKEN", "")
	assert.Equal(t, DeriveServiceToken("secret"), ResolveServiceToken("secret"))
}

func TestResolveServiceTokenReadsTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("from-file\n"), 0o600))
	t.Setenv("TRAYMENU_SERVICE_TOKEN", "")
	t.Setenv(TokenFileEnv, path)
	assert.Equal(t, "from-file", ResolveServiceToken(""))

	t.Setenv(TokenFileEnv, filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, DeriveServiceToken("secret"), ResolveServiceToken("secret"))
}

func TestTokensEqual(t *testing.T) {
	assert.True(t, TokensEqual("abc", "abc"))
	assert.False(t, TokensEqual("abc", "abd"))
	assert.False(t, TokensEqual("abc", ""))
	assert.False(t, TokensEqual("", ""))
}
