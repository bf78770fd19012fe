package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/devcamper-api/config"
)

var testJWTConfig = config.JWTConfig{SecretKey: "test-secret", Issuer: "devcamper-api", Expiry: time.Hour, CookieExpireDays: 30}

func TestTokenManager_SignVerify(t *testing.T) {
	m := NewTokenManager(testJWTConfig)
	id := uuid.New()

	token, err := m.Sign(id)
	require.NoError(t, err)

	got, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager(testJWTConfig)
	id := uuid.New()

	expired := NewTokenManager(testJWTConfig)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.Sign(id)
	require.NoError(t, err)

	otherSecret := NewTokenManager(config.JWTConfig{SecretKey: "other", Issuer: "devcamper-api", Expiry: time.Hour})
	forged, err := otherSecret.Sign(id)
	require.NoError(t, err)

	otherIssuer := NewTokenManager(config.JWTConfig{SecretKey: "test-secret", Issuer: "someone-else", Expiry: time.Hour})
	wrongIssuer, err := otherIssuer.Sign(id)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   id.String(),
		Issuer:    "devcamper-api",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":       "not-a-token",
		"expired":       expiredToken,
		"bad signature": forged,
		"wrong issuer":  wrongIssuer,
		"alg none":      none,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := m.Verify(token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}

func TestResetToken(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tok, err := NewResetToken(now, 10*time.Minute)
	require.NoError(t, err)

	assert.Len(t, tok.Raw, 40)
	assert.Len(t, tok.Digest, 64)
	assert.Equal(t, HashResetToken(tok.Raw), tok.Digest)
	assert.NotEqual(t, tok.Raw, tok.Digest)
	assert.Equal(t, now.Add(10*time.Minute), tok.Expires)

	other, err := NewResetToken(now, time.Minute)
	require.NoError(t, err)
	assert.NotEqual(t, tok.Raw, other.Raw)
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(4)
	hash, err := h.Hash("123456")
	require.NoError(t, err)
	assert.True(t, h.Compare(hash, "123456"))
	assert.False(t, h.Compare(hash, "654321"))
}
