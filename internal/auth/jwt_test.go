package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/VehanRajintha/ChatX/internal/apperr"
	"github.com/VehanRajintha/ChatX/internal/auth"
)

const secret = "unit-test-secret"

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestVerifierRequiresKeyMaterial(t *testing.T) {
	_, err := auth.NewVerifier("", "")
	require.Error(t, err)
}

func TestVerifyValidToken(t *testing.T) {
	v, err := auth.NewVerifier("", secret)
	require.NoError(t, err)

	sess, err := v.Verify(sign(t, jwt.MapClaims{"sub": "alice", "exp": time.Now().Add(time.Hour).Unix()}))
	require.NoError(t, err)
	require.Equal(t, "alice", sess.UserID)
	require.True(t, sess.Valid())
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	v, err := auth.NewVerifier("", secret)
	require.NoError(t, err)

	cases := map[string]string{
		"garbage":         "not-a-token",
		"expired":         sign(t, jwt.MapClaims{"sub": "alice", "exp": time.Now().Add(-time.Hour).Unix()}),
		"missing subject": sign(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}),
	}
	for name, token := range cases {
		_, err := v.Verify(token)
		require.ErrorIs(t, err, apperr.ErrUnauthenticated, name)
	}
}

func TestSessionRequire(t *testing.T) {
	_, err := auth.Session{}.Require()
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)

	sess, err := auth.Session{UserID: "alice"}.Require()
	require.NoError(t, err)
	require.Equal(t, "alice", sess.UserID)
}
