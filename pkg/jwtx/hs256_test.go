package jwtx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHS256SignAndVerify(t *testing.T) {
	signer, err := NewSignerHS256([]byte("test-secret"))
	require.NoError(t, err)

	now := time.Now().UTC()
	claims := NewAccessClaims("user-123", "admin", "comicshelf", time.Hour, now)

	tokenStr, err := signer.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, tokenStr)

	verifier := NewVerifierHS256([]byte("test-secret"), "comicshelf")
	got, err := verifier.Verify(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, "user-123", got.Subject)
	assert.Equal(t, "admin", got.Role)
	assert.Equal(t, "comicshelf", got.Issuer)
}

func TestHS256RefreshClaimsCarryNoRole(t *testing.T) {
	signer, err := NewSignerHS256([]byte("refresh-secret"))
	require.NoError(t, err)

	now := time.Now().UTC()
	tokenStr, err := signer.Sign(NewRefreshClaims("user-123", "comicshelf", time.Hour, now))
	require.NoError(t, err)

	verifier := NewVerifierHS256([]byte("refresh-secret"), "comicshelf")
	got, err := verifier.Verify(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, "user-123", got.Subject)
	assert.Empty(t, got.Role)
}

func TestHS256RejectsWrongSecret(t *testing.T) {
	signer, err := NewSignerHS256([]byte("secret-a"))
	require.NoError(t, err)

	tokenStr, err := signer.Sign(NewAccessClaims("user-123", "user", "", time.Hour, time.Now().UTC()))
	require.NoError(t, err)

	verifier := NewVerifierHS256([]byte("secret-b"), "")
	_, err = verifier.Verify(tokenStr)
	assert.ErrorIs(t, err, ErrInvalidSig)
}

func TestHS256RejectsExpired(t *testing.T) {
	signer, err := NewSignerHS256([]byte("secret"))
	require.NoError(t, err)

	past := time.Now().UTC().Add(-2 * time.Hour)
	tokenStr, err := signer.Sign(NewAccessClaims("user-123", "user", "", time.Hour, past))
	require.NoError(t, err)

	verifier := NewVerifierHS256([]byte("secret"), "")
	_, err = verifier.Verify(tokenStr)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestHS256RejectsGarbage(t *testing.T) {
	verifier := NewVerifierHS256([]byte("secret"), "")
	_, err := verifier.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestHS256RejectsIssuerMismatch(t *testing.T) {
	signer, err := NewSignerHS256([]byte("secret"))
	require.NoError(t, err)

	tokenStr, err := signer.Sign(NewAccessClaims("user-123", "user", "someone-else", time.Hour, time.Now().UTC()))
	require.NoError(t, err)

	verifier := NewVerifierHS256([]byte("secret"), "comicshelf")
	_, err = verifier.Verify(tokenStr)
	assert.ErrorIs(t, err, ErrIssuer)
}

func TestNewSignerHS256RejectsEmptySecret(t *testing.T) {
	_, err := NewSignerHS256(nil)
	assert.Error(t, err)
}
