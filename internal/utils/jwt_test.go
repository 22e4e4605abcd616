package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminTokenRoundTrip(t *testing.T) {
	tok, err := NewAdminToken("s3cret", "ops", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Exp, time.Minute)

	claims, err := ParseToken("s3cret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.Equal(t, "ops", claims.Subject)
}

func TestParseToken_Rejects(t *testing.T) {
	tok, err := NewAdminToken("s3cret", "ops", time.Hour)
	require.NoError(t, err)
	_, err = ParseToken("other", tok.Token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	expired, err := NewAdminToken("s3cret", "ops", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken("s3cret", expired.Token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	_, err = NewAdminToken("", "ops", time.Hour)
	assert.Error(t, err)
}
