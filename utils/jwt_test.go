package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("user-1", RoleUser, time.Hour)
	require.NoError(t, err)

	claim, err := VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claim.SubjectID)
	assert.Equal(t, RoleUser, claim.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claim.ExpiresAt, 5*time.Second)
}

func TestVerifyTokenExpired(t *testing.T) {
	token, err := GenerateToken("user-1", RoleUser, -time.Minute)
	require.NoError(t, err)

	_, err = VerifyToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyTokenTampered(t *testing.T) {
	token, err := GenerateToken("user-1", RoleUser, time.Hour)
	require.NoError(t, err)

	// Flip the signature segment.
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	parts[2] = "AAAA" + parts[2][4:]
	_, err = VerifyToken(strings.Join(parts, "."))
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyTokenGarbage(t *testing.T) {
	for _, token := range []string{"", "not-a-token", "a.b", "a.b.c"} {
		_, err := VerifyToken(token)
		assert.ErrorIs(t, err, ErrTokenInvalid, "token %q", token)
	}
}

func TestClaimAuthorize(t *testing.T) {
	claim := Claim{SubjectID: "user-1", Role: RoleBookingStaff}

	assert.True(t, claim.Authorize(), "empty allow-list permits any authenticated subject")
	assert.True(t, claim.Authorize(RoleAdmin, RoleBookingStaff))
	assert.False(t, claim.Authorize(RoleAdmin))
	assert.False(t, Claim{Role: ""}.Authorize(RoleUser))
}
