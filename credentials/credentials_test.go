package credentials

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The interleaving is a compatibility contract: for password "abc" and salt
// "0123456" the salted string is "5a6b0c" (salt chars at positions 5, 6, 0).
func TestHashInterleaving(t *testing.T) {
	sum := sha256.Sum256([]byte("5a6b0c"))
	want := hex.EncodeToString(sum[:])

	assert.Equal(t, want, Hash("abc", "0123456"))
}

func TestVerifyRoundTrip(t *testing.T) {
	passwords := []string{"hunter2", "correct horse battery staple", "p", ""}

	for _, p := range passwords {
		salt := GenerateSalt()
		require.NotEmpty(t, salt)

		hash := Hash(p, salt)
		assert.True(t, Verify(p, salt, hash), "password %q", p)
	}
}

func TestPerturbationChangesHash(t *testing.T) {
	salt := "a1b2c3d"
	base := Hash("password", salt)

	assert.NotEqual(t, base, Hash("passwore", salt), "changed password char")
	assert.NotEqual(t, base, Hash("password", "a1b2c3e"), "changed salt char")
	assert.False(t, Verify("Password", salt, base))
}

func TestSaltRotationMatters(t *testing.T) {
	// Same characters, different order: the offset rule must pick different
	// salt characters and therefore produce a different digest.
	assert.NotEqual(t, Hash("abcdef", "12345678"), Hash("abcdef", "87654321"))
}
