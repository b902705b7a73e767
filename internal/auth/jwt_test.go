package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestSigner(ttl time.Duration) *TokenSigner {
	return NewTokenSigner([]byte("test-secret"), "tasks-backend", ttl)
}

func TestIssueAndValidateToken(t *testing.T) {
	s := newTestSigner(time.Hour)

	tok, exp, err := s.IssueToken("user-42")
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := s.ParseAndValidate(tok)
	require.NoError(t, err)
	require.Equal(t, "user-42", claims.Sub)
	require.NotEmpty(t, claims.TokenID)
	require.Equal(t, exp.Unix(), claims.ExpiresAt)
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	s := newTestSigner(time.Hour)

	tok, _, err := s.IssueToken("user-42")
	require.NoError(t, err)

	// Flipping any single byte must invalidate the token.
	for _, i := range []int{0, len(tok) / 2, len(tok) - 1} {
		raw := []byte(tok)
		if raw[i] == 'A' {
			raw[i] = 'B'
		} else {
			raw[i] = 'A'
		}
		_, err := s.ParseAndValidate(string(raw))
		require.ErrorIs(t, err, ErrInvalidToken, "byte %d", i)
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	s := newTestSigner(-time.Minute)

	tok, _, err := s.IssueToken("user-42")
	require.NoError(t, err)

	_, err = s.ParseAndValidate(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	s := newTestSigner(time.Hour)
	other := NewTokenSigner([]byte("other-secret"), "tasks-backend", time.Hour)

	tok, _, err := other.IssueToken("user-42")
	require.NoError(t, err)

	_, err = s.ParseAndValidate(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}
