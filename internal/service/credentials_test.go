package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	digest, err := HashPassword("p1-secret")
	require.NoError(t, err)
	assert.NotEqual(t, "p1-secret", digest)

	ok, err := CheckPassword("p1-secret", digest)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHashPassword_SaltUniqueness(t *testing.T) {
	a, err := HashPassword("same-input")
	require.NoError(t, err)
	b, err := HashPassword("same-input")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestCheckPassword_Mismatch(t *testing.T) {
	digest, err := HashPassword("right")
	require.NoError(t, err)

	ok, err := CheckPassword("wrong", digest)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckPassword_MalformedDigest(t *testing.T) {
	_, err := CheckPassword("whatever", "not-a-bcrypt-digest")
	assert.ErrorIs(t, err, ErrMalformedDigest)
}
