package password_test

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"ecom_stationery/internal/lib/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash_SHA256Format(t *testing.T) {
	h := password.New(password.SchemeSHA256)

	stored, err := h.Hash("s3cret")
	require.NoError(t, err)

	parts := strings.Split(stored, ":")
	require.Len(t, parts, 2)
	assert.Len(t, parts[0], 32)
	assert.Len(t, parts[1], 64)

	sum := sha256.Sum256([]byte("s3cret" + parts[0]))
	assert.Equal(t, hex.EncodeToString(sum[:]), parts[1])
}

func TestHash_FreshSaltEachTime(t *testing.T) {
	h := password.New(password.SchemeSHA256)

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestVerify_RoundTrip(t *testing.T) {
	for _, scheme := range []string{password.SchemeSHA256, password.SchemeBcrypt} {
		t.Run(scheme, func(t *testing.T) {
			h := password.New(scheme)

			for _, p := range []string{"a", "correct horse battery staple", "пароль", "x:y"} {
				stored, err := h.Hash(p)
				require.NoError(t, err)

				assert.True(t, password.Verify(p, stored))
				assert.False(t, password.Verify(p+"!", stored))
			}
		})
	}
}

func TestVerify_DifferentPasswords(t *testing.T) {
	h := password.New(password.SchemeSHA256)

	stored, err := h.Hash("first")
	require.NoError(t, err)

	assert.False(t, password.Verify("second", stored))
}

func TestVerify_Malformed(t *testing.T) {
	for _, stored := range []string{"", "nosep", ":", "salt:", ":digest", "a:b:c", "$2a$10$broken"} {
		assert.False(t, password.Verify("whatever", stored), stored)
	}
}

func TestNeedsRehash(t *testing.T) {
	legacy, err := password.New(password.SchemeSHA256).Hash("p")
	require.NoError(t, err)
	modern, err := password.New(password.SchemeBcrypt).Hash("p")
	require.NoError(t, err)

	bc := password.New(password.SchemeBcrypt)
	assert.True(t, bc.NeedsRehash(legacy))
	assert.False(t, bc.NeedsRehash(modern))

	sh := password.New(password.SchemeSHA256)
	assert.False(t, sh.NeedsRehash(legacy))
	assert.False(t, sh.NeedsRehash(modern))
}
