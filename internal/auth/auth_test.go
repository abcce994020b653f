package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pizzeria_back_end/internal/models"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Secret@123")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	ok, err := VerifyPassword("Secret@123", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = VerifyPassword("secret@123", hash)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = VerifyPassword("x", "$2a$10$notargon")
	require.ErrorIs(t, err, ErrInvalidHash)
}

func newManager() *TokenManager {
	return NewTokenManager(Options{Secret: "test-secret", Issuer: "pizzeria"})
}

func TestIssuePairRoundTrip(t *testing.T) {
	m := newManager()
	user := &models.User{ID: uuid.New(), Email: "c@example.com", Role: models.RoleManager}

	access, refresh, err := m.IssuePair(user)
	require.NoError(t, err)

	p, err := m.Parse(access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, p.UserID)
	assert.Equal(t, models.RoleManager, p.Role)
	assert.False(t, p.Refresh)
	assert.NotEmpty(t, p.TokenID)
	assert.WithinDuration(t, time.Now().Add(DefaultAccessTTL), p.ExpiresAt, time.Minute)

	r, err := m.Parse(refresh)
	require.NoError(t, err)
	assert.True(t, r.Refresh)
	assert.NotEqual(t, p.TokenID, r.TokenID)
}

func TestParseRejectsExpiredAndForeignTokens(t *testing.T) {
	m := newManager()
	m.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	access, _, err := m.IssuePair(&models.User{ID: uuid.New(), Role: models.RoleCustomer})
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(access)
	require.ErrorIs(t, err, ErrExpiredToken)

	other := NewTokenManager(Options{Secret: "other"})
	fresh, _, err := other.IssuePair(&models.User{ID: uuid.New(), Role: models.RoleCustomer})
	require.NoError(t, err)
	_, err = m.Parse(fresh)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSafeTokenPurpose(t *testing.T) {
	m := newManager()
	tok, err := m.IssueSafe("c@example.com", PurposeVerify)
	require.NoError(t, err)

	email, err := m.ParseSafe(tok, PurposeVerify)
	require.NoError(t, err)
	require.Equal(t, "c@example.com", email)

	_, err = m.ParseSafe(tok, PurposeReset)
	require.ErrorIs(t, err, ErrWrongPurpose)

	_, err = m.Parse(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevocationTTL(t *testing.T) {
	now := time.Now()
	assert.Equal(t, time.Hour, RevocationTTL(&Principal{ExpiresAt: now.Add(time.Hour)}, now))
	assert.Equal(t, MaxRevocationTTL, RevocationTTL(&Principal{ExpiresAt: now.Add(30 * 24 * time.Hour)}, now))
	assert.Equal(t, time.Minute, RevocationTTL(&Principal{ExpiresAt: now.Add(-time.Hour)}, now))
}
