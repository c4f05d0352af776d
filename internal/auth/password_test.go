package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	req := require.New(t)
	v := Argon2Verifier{}

	hash, err := v.Hash("hunter22")
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	ok, err := v.Verify(hash, "hunter22")
	req.NoError(err)
	req.True(ok)

	ok, err = v.Verify(hash, "wrong-password")
	req.NoError(err)
	req.False(ok)
}

func TestHashIsSalted(t *testing.T) {
	req := require.New(t)
	v := Argon2Verifier{}

	first, err := v.Hash("hunter22")
	req.NoError(err)
	second, err := v.Hash("hunter22")
	req.NoError(err)
	req.NotEqual(first, second)
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	v := Argon2Verifier{}

	for _, encoded := range []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=65536,t=3,p=2$onlyonepart",
		"$bcrypt$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=2$!!!$aGFzaA",
	} {
		_, err := v.Verify(encoded, "hunter22")
		require.ErrorIs(t, err, ErrInvalidHash, "encoded=%q", encoded)
	}
}
