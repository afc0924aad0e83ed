package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_RoundTrip(t *testing.T) {
	issuer := NewIssuer("secret", "car-rental", time.Hour)

	token, jti, err := issuer.Generate("user-1", "a@example.com", "STAFF")
	require.NoError(t, err)
	assert.NotEmpty(t, jti)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "STAFF", claims.Role)
	assert.Equal(t, jti, claims.ID)
}

func TestIssuer_Expired(t *testing.T) {
	issuer := NewIssuer("secret", "car-rental", time.Minute)
	issued := time.Now().Add(-time.Hour)
	issuer.now = func() time.Time { return issued }

	token, _, err := issuer.Generate("user-1", "a@example.com", "CUSTOMER")
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Parse(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestIssuer_WrongSecret(t *testing.T) {
	token, _, err := NewIssuer("secret", "car-rental", time.Hour).Generate("user-1", "a@example.com", "CUSTOMER")
	require.NoError(t, err)

	_, err = NewIssuer("other", "car-rental", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_EmptySecret(t *testing.T) {
	_, _, err := NewIssuer("", "car-rental", time.Hour).Generate("user-1", "a@example.com", "CUSTOMER")
	assert.Error(t, err)
}
