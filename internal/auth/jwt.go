package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenSigner mints and verifies session tokens. Tokens are HS256 over the
// service secret with a fixed TTL; an expired or tampered token is reported
// the same way as a forged one.
type TokenSigner struct {
	Secret []byte
	Iss    string        // issuer, e.g. "tasks-backend"
	TTL    time.Duration // e.g. 1 * time.Hour
}

func NewTokenSigner(secret []byte, iss string, ttl time.Duration) *TokenSigner {
	return &TokenSigner{Secret: secret, Iss: iss, TTL: ttl}
}

func (s *TokenSigner) IssueToken(sub string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.TTL)

	claims := jwt.MapClaims{
		"iss": s.Iss,
		"sub": sub,
		"iat": now.Unix(),
		"exp": exp.Unix(),
		"jti": uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(s.Secret)
	return ss, exp, err
}

func (s *TokenSigner) ParseAndValidate(tokenStr string) (*Claims, error) {
	keyFunc := func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.Secret, nil
	}

	tok, err := jwt.ParseWithClaims(
		tokenStr,
		jwt.MapClaims{},
		keyFunc,
		jwt.WithIssuer(s.Iss),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	std := tok.Claims.(jwt.MapClaims)

	getString := func(k string) string {
		if v, ok := std[k].(string); ok {
			return v
		}
		return ""
	}
	getInt64 := func(k string) int64 {
		switch v := std[k].(type) {
		case float64:
			return int64(v)
		case int64:
			return v
		default:
			return 0
		}
	}

	return &Claims{
		Sub:       getString("sub"),
		TokenID:   getString("jti"),
		IssuedAt:  getInt64("iat"),
		ExpiresAt: getInt64("exp"),
	}, nil
}
